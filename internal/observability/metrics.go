package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpDurationBuckets   = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	lookupDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	bodySizeBuckets       = []float64{100, 1024, 10240, 102400, 1048576}
)

// Metrics holds the Prometheus instruments of the service.
type Metrics struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSizeBytes  *prometheus.HistogramVec
	HTTPResponseSizeBytes *prometheus.HistogramVec

	LoginsTotal             *prometheus.CounterVec
	WorkflowMountsTotal     *prometheus.CounterVec
	ValidationFailuresTotal *prometheus.CounterVec
	SubmissionsTotal        *prometheus.CounterVec
	SubmissionDuration      *prometheus.HistogramVec
	ActiveWorkspaces        prometheus.Gauge

	PostalLookupsTotal        *prometheus.CounterVec
	PostalLookupDuration      prometheus.Histogram
	PostalCircuitBreakerState prometheus.Gauge
}

// InitMetrics creates the instruments and registers them with reg.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shinsei_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shinsei_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPRequestSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shinsei_http_request_size_bytes",
			Help:    "HTTP request body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shinsei_http_response_size_bytes",
			Help:    "HTTP response body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),

		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shinsei_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		WorkflowMountsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shinsei_workflow_mounts_total",
			Help: "Forms mounted by workflow type.",
		}, []string{"workflow_id"}),
		ValidationFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shinsei_validation_failures_total",
			Help: "Field errors reported by submit attempts.",
		}, []string{"workflow_id", "field"}),
		SubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shinsei_submissions_total",
			Help: "Confirmed submissions by outcome.",
		}, []string{"workflow_id", "outcome"}),
		SubmissionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shinsei_submission_duration_seconds",
			Help:    "Time spent delivering a submission.",
			Buckets: lookupDurationBuckets,
		}, []string{"workflow_id"}),
		ActiveWorkspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shinsei_active_workspaces",
			Help: "Workspaces of logged-in sessions held in memory.",
		}),

		PostalLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shinsei_postal_lookups_total",
			Help: "Postal code lookups by outcome.",
		}, []string{"outcome"}),
		PostalLookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shinsei_postal_lookup_duration_seconds",
			Help:    "Postal code lookup duration in seconds.",
			Buckets: lookupDurationBuckets,
		}),
		PostalCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shinsei_postal_circuit_breaker_state",
			Help: "Postal lookup circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSizeBytes,
		m.HTTPResponseSizeBytes,
		m.LoginsTotal,
		m.WorkflowMountsTotal,
		m.ValidationFailuresTotal,
		m.SubmissionsTotal,
		m.SubmissionDuration,
		m.ActiveWorkspaces,
		m.PostalLookupsTotal,
		m.PostalLookupDuration,
		m.PostalCircuitBreakerState,
	)
	return m
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration, reqSize, respSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
	m.HTTPRequestSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(reqSize))
	m.HTTPResponseSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(respSize))
}

func (m *Metrics) RecordLogin(outcome string) {
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordWorkflowMount(workflowID string) {
	m.WorkflowMountsTotal.WithLabelValues(workflowID).Inc()
}

func (m *Metrics) RecordValidationFailure(workflowID, field string) {
	m.ValidationFailuresTotal.WithLabelValues(workflowID, field).Inc()
}

func (m *Metrics) RecordSubmission(workflowID, outcome string, d time.Duration) {
	m.SubmissionsTotal.WithLabelValues(workflowID, outcome).Inc()
	m.SubmissionDuration.WithLabelValues(workflowID).Observe(d.Seconds())
}

func (m *Metrics) SetActiveWorkspaces(n int) {
	m.ActiveWorkspaces.Set(float64(n))
}

func (m *Metrics) RecordPostalLookup(outcome string, d time.Duration) {
	m.PostalLookupsTotal.WithLabelValues(outcome).Inc()
	m.PostalLookupDuration.Observe(d.Seconds())
}

// SetPostalBreakerState sets the breaker gauge. State: 0=closed,
// 1=half-open, 2=open.
func (m *Metrics) SetPostalBreakerState(state float64) {
	m.PostalCircuitBreakerState.Set(state)
}

// MetricsMiddleware records request metrics labelled with chi's route
// pattern rather than the raw path.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		reqSize := 0
		if r.ContentLength > 0 {
			reqSize = int(r.ContentLength)
		}
		m.RecordHTTPRequest(r.Method, routePattern(r), sw.status, time.Since(start), reqSize, sw.bytes)
	})
}

// Handler serves the registered metrics.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := rctx.RoutePattern()
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}
