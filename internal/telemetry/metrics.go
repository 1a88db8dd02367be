package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/wolfeidau/reception"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Session metrics
	LoginsTotal        metric.Int64Counter
	LoginDuration      metric.Float64Histogram
	LogoutsTotal       metric.Int64Counter
	InvalidationsTotal metric.Int64Counter

	// API metrics
	APIRequestsTotal  metric.Int64Counter
	APIRequestErrors  metric.Int64Counter
	APIRequestRetries metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// Tracer returns the tracer used for client spans.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	m := &Metrics{}

	// Session metrics
	m.LoginsTotal, _ = meter.Int64Counter(
		"reception.session.logins.total",
		metric.WithDescription("Total number of login attempts by result"),
		metric.WithUnit("{login}"),
	)

	m.LoginDuration, _ = meter.Float64Histogram(
		"reception.session.login.duration",
		metric.WithDescription("Duration of credential exchanges"),
		metric.WithUnit("ms"),
	)

	m.LogoutsTotal, _ = meter.Int64Counter(
		"reception.session.logouts.total",
		metric.WithDescription("Total number of logouts"),
		metric.WithUnit("{logout}"),
	)

	m.InvalidationsTotal, _ = meter.Int64Counter(
		"reception.session.invalidations.total",
		metric.WithDescription("Total number of sessions invalidated after the server rejected the token"),
		metric.WithUnit("{session}"),
	)

	// API metrics
	m.APIRequestsTotal, _ = meter.Int64Counter(
		"reception.api.requests.total",
		metric.WithDescription("Total number of authenticated API calls"),
		metric.WithUnit("{request}"),
	)

	m.APIRequestErrors, _ = meter.Int64Counter(
		"reception.api.requests.errors.total",
		metric.WithDescription("Total number of failed authenticated API calls by kind"),
		metric.WithUnit("{error}"),
	)

	m.APIRequestRetries, _ = meter.Int64Counter(
		"reception.api.requests.retries.total",
		metric.WithDescription("Total number of retried API calls"),
		metric.WithUnit("{retry}"),
	)

	return m
}
