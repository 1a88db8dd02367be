// Package devserver is an in-memory implementation of the reception API used
// for local runs and tests. It issues HS256 JWT access tokens from a password
// grant and serves the profile and meetings of the token's subject.
package devserver

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	httpmiddleware "github.com/wolfeidau/reception/internal/http"
	"github.com/wolfeidau/reception/internal/models"
)

// Config configures a Server.
type Config struct {
	Secret      []byte
	TokenTTL    time.Duration
	Accounts    []Account
	Meetings    map[models.ID][]models.Meeting
	CORSOrigins []string
	Tracing     bool
	Logger      *zerolog.Logger
}

// Server serves POST /token, GET /users/me and GET /meetings/.
type Server struct {
	issuer   *TokenIssuer
	accounts map[string]Account
	byID     map[models.ID]Account
	meetings map[models.ID][]models.Meeting
	cfg      Config
	logger   zerolog.Logger
}

// New builds a server, using the default fixtures when cfg has no accounts.
func New(cfg Config) (*Server, error) {
	issuer, err := NewTokenIssuer(cfg.Secret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	if len(cfg.Accounts) == 0 {
		cfg.Accounts = DefaultAccounts()
	}
	if cfg.Meetings == nil {
		cfg.Meetings = DefaultMeetings(cfg.Accounts, time.Now())
	}

	s := &Server{
		issuer:   issuer,
		accounts: make(map[string]Account, len(cfg.Accounts)),
		byID:     make(map[models.ID]Account, len(cfg.Accounts)),
		meetings: cfg.Meetings,
		cfg:      cfg,
		logger:   log.Logger,
	}
	if cfg.Logger != nil {
		s.logger = *cfg.Logger
	}

	for _, acc := range cfg.Accounts {
		if acc.Profile.Email == "" || acc.Profile.ID == "" {
			return nil, errors.New("account requires an email and id")
		}
		s.accounts[strings.ToLower(acc.Profile.Email)] = acc
		s.byID[acc.Profile.ID] = acc
	}

	return s, nil
}

// Handler returns the routed and instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /token", s.token)
	mux.Handle("GET /users/me", s.authenticated(http.HandlerFunc(s.me)))
	mux.Handle("GET /meetings/{$}", s.authenticated(http.HandlerFunc(s.listMeetings)))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var handler http.Handler = mux

	if len(s.cfg.CORSOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   s.cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
			AllowCredentials: false,
			MaxAge:           7200,
		}).Handler(handler)
	}

	handler = httpmiddleware.AccessLog(s.logger)(handler)

	if s.cfg.Tracing {
		handler = otelhttp.NewHandler(handler, "reception-devserver")
	}

	return handler
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid form body"})
		return
	}

	if gt := r.PostForm.Get("grant_type"); gt != "" && gt != "password" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "unsupported grant_type"})
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	acc, ok := s.accounts[strings.ToLower(username)]
	if !ok || subtle.ConstantTimeCompare([]byte(acc.Password), []byte(password)) != 1 || !acc.Profile.IsActive {
		s.logger.Info().Str("username", username).Msg("rejected login")
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "Incorrect username or password"})
		return
	}

	token, expires, err := s.issuer.Issue(string(acc.Profile.ID), acc.Profile.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to issue token")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal error"})
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(time.Until(expires).Seconds()),
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.account(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, acc.Profile)
}

func (s *Server) listMeetings(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.account(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "User not found"})
		return
	}

	meetings := s.meetings[acc.Profile.ID]
	if meetings == nil {
		meetings = []models.Meeting{}
	}
	writeJSON(w, http.StatusOK, meetings)
}

func (s *Server) account(r *http.Request) (Account, bool) {
	sub, ok := httpmiddleware.SubjectFromContext(r.Context())
	if !ok {
		return Account{}, false
	}
	acc, ok := s.byID[models.ID(sub)]
	return acc, ok
}

// authenticated rejects requests without a valid bearer token.
func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := httpmiddleware.BearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "Not authenticated"})
			return
		}

		claims, err := s.issuer.Verify(token)
		if err != nil {
			s.logger.Debug().Err(err).Msg("token verification failed")
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "Could not validate credentials"})
			return
		}

		next.ServeHTTP(w, r.WithContext(httpmiddleware.WithSubject(r.Context(), claims.Subject)))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
