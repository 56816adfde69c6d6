// Package prometheus exposes the application's metric surface.  All metric
// registration happens here; other packages receive a *Metrics instance via
// constructor injection and must not register collectors themselves.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default histogram buckets.
var (
	DefaultHTTPDurationBuckets    = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAdapterDurationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
)

// Metrics holds every metric vector the application emits.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP layer
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Generation pipeline
	GenerationPassesTotal *prometheus.CounterVec // label: policy, outcome (applied|stale|failed)
	GenerationDuration    *prometheus.HistogramVec
	CandidatesTotal       *prometheus.CounterVec // label: source, stage (produced|accepted)

	// Source adapters
	AdapterCallsTotal *prometheus.CounterVec // label: adapter, outcome (ok|error)
	AdapterDuration   *prometheus.HistogramVec

	// Remote analysis endpoint
	RemoteRequestsTotal *prometheus.CounterVec // label: structured, outcome
	RemoteDuration      *prometheus.HistogramVec

	// Persistence
	StoreOpsTotal *prometheus.CounterVec // label: op, outcome
}

// New registers all application metrics on a fresh Registry and returns the
// populated Metrics.  Each process builds exactly one instance.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "annolens_http_requests_total",
		Help: "Total HTTP requests served.",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "annolens_http_request_duration_seconds",
		Help:    "HTTP request duration.",
		Buckets: DefaultHTTPDurationBuckets,
	}, []string{"method", "path"})

	m.GenerationPassesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "annolens_generation_passes_total",
		Help: "Annotation generation passes by gating policy and outcome.",
	}, []string{"policy", "outcome"})

	m.GenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "annolens_generation_duration_seconds",
		Help:    "End-to-end duration of one generation pass.",
		Buckets: DefaultAdapterDurationBuckets,
	}, []string{"policy"})

	m.CandidatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "annolens_candidates_total",
		Help: "Candidates produced by adapters and accepted by the pipeline.",
	}, []string{"source", "stage"})

	m.AdapterCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "annolens_adapter_calls_total",
		Help: "Source adapter invocations by outcome.",
	}, []string{"adapter", "outcome"})

	m.AdapterDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "annolens_adapter_duration_seconds",
		Help:    "Source adapter call duration.",
		Buckets: DefaultAdapterDurationBuckets,
	}, []string{"adapter"})

	m.RemoteRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "annolens_remote_requests_total",
		Help: "Calls to the remote analysis endpoint.",
	}, []string{"structured", "outcome"})

	m.RemoteDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "annolens_remote_request_duration_seconds",
		Help:    "Remote analysis endpoint round-trip duration.",
		Buckets: DefaultAdapterDurationBuckets,
	}, []string{"structured"})

	m.StoreOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "annolens_store_operations_total",
		Help: "Annotation store operations by outcome.",
	}, []string{"op", "outcome"})

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GenerationPassesTotal,
		m.GenerationDuration,
		m.CandidatesTotal,
		m.AdapterCallsTotal,
		m.AdapterDuration,
		m.RemoteRequestsTotal,
		m.RemoteDuration,
		m.StoreOpsTotal,
	)

	return m
}

// Handler returns the /metrics HTTP handler for the underlying registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
