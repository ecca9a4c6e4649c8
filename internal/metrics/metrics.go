package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is what services and middleware record against.
// Init returns either the Prometheus-backed Metrics or NoopMetrics.
type Recorder interface {
	// OAuth flow
	RecordAuthorizeStart(provider string, success bool)
	RecordCallback(provider, result string)
	RecordTokenExchange(provider string, success bool, duration time.Duration)

	// Token store
	RecordLazyExpiration(provider string)
	SetConnectedProviders(count int)

	// Connectivity probes
	RecordProbe(provider, testType string, ok bool, duration time.Duration)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// OAuth Flow Metrics
	AuthorizeStartsTotal  *prometheus.CounterVec
	CallbacksTotal        *prometheus.CounterVec
	TokenExchangeDuration *prometheus.HistogramVec

	// Token Store Metrics
	TokensExpiredTotal *prometheus.CounterVec
	ConnectedProviders prometheus.Gauge

	// Probe Metrics
	ProbesTotal   *prometheus.CounterVec
	ProbeDuration *prometheus.HistogramVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag.
// Prometheus collectors are registered only once per process.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// upstreamBuckets covers provider round trips from 50ms to 30s
var upstreamBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		AuthorizeStartsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "connectgate_authorize_starts_total",
				Help: "Total number of authorization redirects started",
			},
			[]string{"provider", "result"}, // success, error
		),
		CallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "connectgate_oauth_callbacks_total",
				Help: "Total number of OAuth callbacks by outcome",
			},
			// result: success, provider_error, missing_code, invalid_state,
			// missing_client, exchange_error, store_error
			[]string{"provider", "result"},
		),
		TokenExchangeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "connectgate_token_exchange_duration_seconds",
				Help:    "Time taken by the provider token endpoint",
				Buckets: upstreamBuckets,
			},
			[]string{"provider", "result"},
		),

		TokensExpiredTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "connectgate_tokens_expired_total",
				Help: "Total number of token records removed on read after expiry",
			},
			[]string{"provider"},
		),
		ConnectedProviders: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "connectgate_connected_providers",
				Help: "Current number of providers holding a live token",
			},
		),

		ProbesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "connectgate_probes_total",
				Help: "Total number of connectivity probes",
			},
			[]string{"provider", "test_type", "result"}, // ok, failed
		),
		ProbeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "connectgate_probe_duration_seconds",
				Help:    "Time taken by a connectivity probe including all steps",
				Buckets: upstreamBuckets,
			},
			[]string{"provider"},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001, 0.005, 0.010, 0.025, 0.050, 0.100,
					0.250, 0.500, 1.0, 2.5, 5.0, 10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors during metric collection",
			},
			[]string{"operation"}, // list_tokens
		),
	}
}

func resultLabel(success bool) string {
	if success {
		return resultSuccess
	}
	return resultError
}

// RecordAuthorizeStart records an authorize redirect attempt
func (m *Metrics) RecordAuthorizeStart(provider string, success bool) {
	m.AuthorizeStartsTotal.WithLabelValues(provider, resultLabel(success)).Inc()
}

// RecordCallback records the terminal outcome of a callback
func (m *Metrics) RecordCallback(provider, result string) {
	m.CallbacksTotal.WithLabelValues(provider, result).Inc()
}

// RecordTokenExchange records a code exchange round trip
func (m *Metrics) RecordTokenExchange(provider string, success bool, duration time.Duration) {
	m.TokenExchangeDuration.
		WithLabelValues(provider, resultLabel(success)).
		Observe(duration.Seconds())
}

// RecordLazyExpiration records an expired token dropped on read
func (m *Metrics) RecordLazyExpiration(provider string) {
	m.TokensExpiredTotal.WithLabelValues(provider).Inc()
}

// SetConnectedProviders sets the connected provider gauge (periodic updates)
func (m *Metrics) SetConnectedProviders(count int) {
	m.ConnectedProviders.Set(float64(count))
}

// RecordProbe records a connectivity probe
func (m *Metrics) RecordProbe(provider, testType string, ok bool, duration time.Duration) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.ProbesTotal.WithLabelValues(provider, testType, result).Inc()
	m.ProbeDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordDatabaseQueryError records a database query error during metric collection
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
