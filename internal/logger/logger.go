package logger

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the process logger. Production output is JSON on stderr at
// info level; dev switches to the console writer at debug level.
func Setup(dev bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Caller().Logger()
	}

	return logger
}

var _ http.RoundTripper = (*RequestLogger)(nil)

// RequestLogger logs every outbound HTTP call. Headers are never logged, so
// bearer tokens stay out of the output.
type RequestLogger struct {
	next   http.RoundTripper
	logger zerolog.Logger
}

// NewRequestLogger wraps next, nil uses http.DefaultTransport.
func NewRequestLogger(next http.RoundTripper, logger zerolog.Logger) *RequestLogger {
	if next == nil {
		next = http.DefaultTransport
	}
	return &RequestLogger{next: next, logger: logger}
}

func (r *RequestLogger) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()

	resp, err := r.next.RoundTrip(req)

	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("method", req.Method).
			Str("host", req.URL.Host).
			Str("path", req.URL.Path).
			Dur("duration", time.Since(started)).
			Msg("http call")

		return resp, err
	}

	r.logger.Debug().
		Str("method", req.Method).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("http call")

	return resp, nil
}
