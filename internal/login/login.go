// Package login exchanges a username and password for a bearer token using
// the OAuth2 resource owner password grant.
package login

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/wolfeidau/reception/internal/models"
)

var (
	// ErrInvalidCredentials is returned when the server rejects the username or password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNetwork is returned for transport level failures such as timeouts,
	// DNS errors and connection resets.
	ErrNetwork = errors.New("network error")

	// ErrUnexpectedResponse is returned when the server answers but the
	// response is not a usable token.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// Transport performs the credential exchange against POST {base}/token.
// It never retries.
type Transport struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// New creates a login transport for the API rooted at baseURL.
// A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) (*Transport, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	tokenURL, err := url.JoinPath(baseURL, "token")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Transport{
		config: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL: tokenURL,
				// The API expects plain form fields, without client authentication.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}, nil
}

// TokenURL returns the endpoint credentials are posted to.
func (t *Transport) TokenURL() string {
	return t.config.Endpoint.TokenURL
}

// Login posts username, password and grant_type=password as a form and
// returns the access token from the response.
func (t *Transport) Login(ctx context.Context, username, password string) (models.Credential, error) {
	log.Debug().Str("username", username).Str("tokenURL", t.TokenURL()).Msg("exchanging credentials for token")

	ctx = context.WithValue(ctx, oauth2.HTTPClient, t.httpClient)

	token, err := t.config.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return "", classify(err)
	}

	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: response missing access_token", ErrUnexpectedResponse)
	}

	return models.Credential(token.AccessToken), nil
}

// classify maps an oauth2 or transport error onto the package sentinels,
// keeping the cause in the chain.
func classify(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}

		switch status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: server returned HTTP %d", ErrInvalidCredentials, status)
		default:
			return fmt.Errorf("%w: server returned HTTP %d", ErrUnexpectedResponse, status)
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
}
