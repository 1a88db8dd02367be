package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/reception/internal/models"
	"github.com/wolfeidau/reception/internal/telemetry"
)

// Call describes a single API request.
type Call struct {
	Method string
	Path   string
}

// Get is a GET call to path.
func Get(path string) Call {
	return Call{Method: http.MethodGet, Path: path}
}

// Do performs call with the current credential and decodes the JSON response
// into T.
//
// Without a credential it fails with ErrUnauthorized and makes no request. A
// 401 or 403 response invalidates the session. Server and network failures
// on idempotent calls are retried with exponential backoff.
func Do[T any](ctx context.Context, c *Client, call Call) (T, error) {
	var zero T

	if call.Method == "" {
		call.Method = http.MethodGet
	}

	cred, ok := c.session.Credential()
	if !ok {
		return zero, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "client."+call.Method+" "+call.Path)
	defer span.End()

	callAttrs := []attribute.KeyValue{
		attribute.String("method", call.Method),
		attribute.String("path", call.Path),
	}
	attrs := metric.WithAttributes(callAttrs...)

	operation := func() (T, error) {
		c.metrics.APIRequestsTotal.Add(ctx, 1, attrs)

		result, err := send[T](ctx, c, cred, call)
		if err == nil {
			return result, nil
		}

		c.metrics.APIRequestErrors.Add(ctx, 1, metric.WithAttributes(append(callAttrs, attribute.String("kind", kindOf(err)))...))

		if !retryable(call, err) {
			return zero, backoff.Permanent(err)
		}
		return zero, err
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.maxRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.metrics.APIRequestRetries.Add(ctx, 1, attrs)
			c.logger.Debug().Err(err).Str("path", call.Path).Dur("next", next).Msg("retrying request")
		}),
	)
	if err == nil {
		return result, nil
	}

	// backoff returns the context error as is when cancelled while waiting
	if !isClassified(err) && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		err = fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, kindOf(err))

	if errors.Is(err, ErrUnauthorized) {
		if ierr := c.session.Invalidate(context.WithoutCancel(ctx), cred, err); ierr != nil {
			c.logger.Error().Err(ierr).Msg("failed to invalidate session")
		}
	}

	return zero, err
}

func send[T any](ctx context.Context, c *Client, cred models.Credential, call Call) (T, error) {
	var result T

	target, err := c.resolve(call.Path)
	if err != nil {
		return result, err
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, target, nil)
	if err != nil {
		return result, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(call, resp); err != nil {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return result, err
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return result, fmt.Errorf("%w: %s %s: %w", ErrDecode, call.Method, call.Path, err)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return result, fmt.Errorf("%w: %s %s: empty body", ErrDecode, call.Method, call.Path)
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("%w: %s %s: %w", ErrDecode, call.Method, call.Path, err)
	}

	if err := validate(&result); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %s %s: %w", ErrDecode, call.Method, call.Path, err)
	}

	return result, nil
}

// validator is implemented by response types with required fields.
type validator interface {
	Validate() error
}

// validate runs Validate on v, or on every element when v points to a slice.
func validate(v any) error {
	if val, ok := v.(validator); ok {
		return val.Validate()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice {
		return nil
	}

	for i := range rv.Len() {
		if err := validate(rv.Index(i).Addr().Interface()); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func checkStatus(call Call, resp *http.Response) error {
	code := resp.StatusCode

	var kind error
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		kind = ErrUnauthorized
	case code == http.StatusNotFound:
		kind = ErrNotFound
	case code == http.StatusTooManyRequests, code >= 500:
		kind = ErrServer
	default:
		kind = ErrUnexpectedStatus
	}

	return fmt.Errorf("%w: %s %s returned HTTP %d", kind, call.Method, call.Path, code)
}

func retryable(call Call, err error) bool {
	switch call.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
	default:
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return errors.Is(err, ErrServer) || errors.Is(err, ErrNetwork)
}

func isClassified(err error) bool {
	return kindOf(err) != "unknown"
}

func kindOf(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrServer):
		return "server"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrUnexpectedStatus):
		return "unexpected_status"
	default:
		return "unknown"
	}
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxInterval = 10 * c.retryInterval
	return b
}
