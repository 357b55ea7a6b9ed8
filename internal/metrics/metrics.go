package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for voyagedesk
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Database Metrics
	DBQueriesTotal  *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Business Metrics
	ReportsSubmittedTotal *prometheus.CounterVec
	ReportsReviewedTotal  *prometheus.CounterVec
	CascadeRunsTotal      *prometheus.CounterVec
	CascadeChainLength    prometheus.Histogram
	CascadeDuration       *prometheus.HistogramVec
	VoyageEventsTotal     *prometheus.CounterVec
	ReportsAwaitingReview *prometheus.GaugeVec
}

// NewMetricsRegistry registers every metric with reg. The server passes
// prometheus.DefaultRegisterer; tests pass a private registry.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	f := promauto.With(reg)
	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyagedesk_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voyagedesk_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "voyagedesk_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Database Metrics
		DBQueriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyagedesk_db_queries_total",
				Help: "Total database queries by operation type",
			},
			[]string{"query_type"},
		),
		DBQueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voyagedesk_db_query_duration_seconds",
				Help:    "Database query execution time in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"query_type"},
		),

		// Cache Metrics
		CacheHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyagedesk_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyagedesk_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		// Business Metrics
		ReportsSubmittedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyagedesk_reports_submitted_total",
				Help: "Reports submitted by captains, by report type",
			},
			[]string{"report_type"},
		),
		ReportsReviewedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyagedesk_reports_reviewed_total",
				Help: "Office review decisions by outcome",
			},
			[]string{"decision"},
		),
		CascadeRunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyagedesk_cascade_runs_total",
				Help: "Cascade previews and applies by outcome",
			},
			[]string{"operation", "outcome"},
		),
		CascadeChainLength: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "voyagedesk_cascade_affected_reports",
				Help:    "Number of reports recalculated by one cascade",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),
		CascadeDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voyagedesk_cascade_duration_seconds",
				Help:    "Cascade preview and apply latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"operation"},
		),
		VoyageEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyagedesk_voyage_events_total",
				Help: "Voyage events published and consumed",
			},
			[]string{"event_type", "direction"},
		),
		ReportsAwaitingReview: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "voyagedesk_reports_awaiting_review",
				Help: "Pending reports per vessel, refreshed by the review backlog job",
			},
			[]string{"vessel_id"},
		),
	}
}
