package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Upstream metrics
	SmartleadCalls        *prometheus.CounterVec
	SmartleadCallDuration *prometheus.HistogramVec
	LeadPageRetries       prometheus.Counter
	LLMCalls              *prometheus.CounterVec

	// Business metrics
	LeadsClassified   prometheus.Counter
	LeadsFlagged      prometheus.Counter
	LeadsRemoved      prometheus.Counter
	ArtifactsUploaded *prometheus.CounterVec
	FollowUpOutcomes  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered on reg.
// A nil reg registers on the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		// Upstream metrics
		SmartleadCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartlead_calls_total",
				Help: "Total number of Smartlead API calls",
			},
			[]string{"endpoint", "outcome"}, // ok, http_error, network_error, config_error
		),
		SmartleadCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smartlead_call_duration_seconds",
				Help:    "Smartlead API call latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		LeadPageRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartlead_lead_page_retries_total",
			Help: "Total number of retried lead page requests",
		}),
		LLMCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_calls_total",
				Help: "Total number of language model questions asked",
			},
			[]string{"predicate", "answer"}, // answer: yes, no, other, error
		),

		// Business metrics
		LeadsClassified: factory.NewCounter(prometheus.CounterOpts{
			Name: "leads_classified_total",
			Help: "Total number of uploaded leads evaluated",
		}),
		LeadsFlagged: factory.NewCounter(prometheus.CounterOpts{
			Name: "leads_flagged_total",
			Help: "Total number of leads flagged for removal",
		}),
		LeadsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "leads_removed_total",
			Help: "Total number of leads removed from campaigns",
		}),
		ArtifactsUploaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "artifacts_uploaded_total",
				Help: "Total number of filtered-lead artifacts uploaded",
			},
			[]string{"backend"}, // s3, local
		),
		FollowUpOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "followup_campaigns_total",
				Help: "Total number of campaigns processed by the follow-up workflow",
			},
			[]string{"outcome"}, // success, failed
		),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Database query duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"operation"},
		),

		// Cache metrics
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}

	return m
}

// NewNop returns metrics registered on a private registry, for tests and CLIs
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // Use route pattern, not actual path (e.g., /api/v1/campaigns/:id)

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, status).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// RecordSmartleadCall records one upstream call
func (m *Metrics) RecordSmartleadCall(endpoint, outcome string, duration time.Duration) {
	m.SmartleadCalls.WithLabelValues(endpoint, outcome).Inc()
	m.SmartleadCallDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordLeadPageRetry increments the lead page retry counter
func (m *Metrics) RecordLeadPageRetry() {
	m.LeadPageRetries.Inc()
}

// RecordLLMCall records one model question and how it was answered
func (m *Metrics) RecordLLMCall(predicate, answer string) {
	m.LLMCalls.WithLabelValues(predicate, answer).Inc()
}

// RecordClassification records a finished classification run
func (m *Metrics) RecordClassification(evaluated, flagged int) {
	m.LeadsClassified.Add(float64(evaluated))
	m.LeadsFlagged.Add(float64(flagged))
}

// RecordLeadsRemoved records a successful bulk delete
func (m *Metrics) RecordLeadsRemoved(count int) {
	m.LeadsRemoved.Add(float64(count))
}

// RecordArtifactUploaded increments artifact uploads for a storage backend
func (m *Metrics) RecordArtifactUploaded(backend string) {
	m.ArtifactsUploaded.WithLabelValues(backend).Inc()
}

// RecordFollowUpOutcome records one campaign's follow-up result
func (m *Metrics) RecordFollowUpOutcome(success bool) {
	outcome := "failed"
	if success {
		outcome = "success"
	}
	m.FollowUpOutcomes.WithLabelValues(outcome).Inc()
}

// RecordDBQuery records database query duration
func (m *Metrics) RecordDBQuery(operation string, duration time.Duration) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheHit increments cache hits counter
func (m *Metrics) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments cache misses counter
func (m *Metrics) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}
