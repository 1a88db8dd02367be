// Package http holds the middleware used by the development server.
package http

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	clientIPContextKey contextKey = "client_ip"
	subjectContextKey  contextKey = "subject"
)

// ExtractClientIP returns the caller address, preferring the first
// X-Forwarded-For entry, then X-Real-IP, then the connection address.
func ExtractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIPFromContext returns the address stored by AccessLog.
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey).(string)
	return ip
}

// AccessLog logs one line per request with status, size and duration. The
// Authorization header is never logged.
func AccessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ExtractClientIP(r)
			r = r.WithContext(context.WithValue(r.Context(), clientIPContextKey, ip))

			m := httpsnoop.CaptureMetrics(next, w, r)

			event := logger.Info()
			if m.Code >= http.StatusInternalServerError {
				event = logger.Error()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("client_ip", ip).
				Int("status", m.Code).
				Int64("bytes", m.Written).
				Dur("duration", m.Duration).
				Msg("request")
		})
	}
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithSubject stores the authenticated subject on ctx.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectContextKey, subject)
}

// SubjectFromContext returns the subject stored by WithSubject.
func SubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subjectContextKey).(string)
	return sub, ok && sub != ""
}
