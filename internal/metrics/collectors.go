package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// TriageRequests counts end-to-end triage runs by outcome.
	TriageRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podtriage_requests_total",
			Help: "Total number of pod triage requests",
		},
		[]string{"result"},
	)

	// TriageDuration observes end-to-end triage latency.
	TriageDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "podtriage_request_duration_seconds",
			Help:    "Pod triage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
		},
	)

	// HTTPRequests counts served HTTP requests by route template.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podtriage_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	// LogFetchAttempts counts log fetch attempts per container instance.
	LogFetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podtriage_log_fetch_attempts_total",
			Help: "Total number of pod log fetch attempts",
		},
		[]string{"instance", "result"}, // instance: current/previous
	)

	// EventFetches counts event list calls.
	EventFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podtriage_event_fetches_total",
			Help: "Total number of pod event list calls",
		},
		[]string{"result"},
	)

	// StatusFetches counts pod status reads.
	StatusFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podtriage_status_fetches_total",
			Help: "Total number of pod status reads",
		},
		[]string{"result"},
	)

	// CollectionFailures counts bundles degraded by the collector guard.
	CollectionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "podtriage_collection_failures_total",
			Help: "Total number of diagnostic collections that failed as a whole",
		},
	)

	// LLMRequests counts summarization backend calls.
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podtriage_llm_requests_total",
			Help: "Total number of LLM completion requests",
		},
		[]string{"model", "result"},
	)

	// LLMDuration observes LLM request latency.
	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "podtriage_llm_request_duration_seconds",
			Help:    "LLM request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"model"},
	)

	// SummaryFallbacks counts summaries replaced by the fallback block.
	SummaryFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "podtriage_summary_fallbacks_total",
			Help: "Total number of summaries replaced by the fallback summary",
		},
	)

	// Notifications counts notification deliveries.
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podtriage_notifications_total",
			Help: "Total number of notification deliveries",
		},
		[]string{"result"}, // success/failure/disabled
	)

	// MonitorTriggers counts pod monitor decisions.
	MonitorTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podtriage_monitor_triggers_total",
			Help: "Total number of bad pod states seen by the monitor",
		},
		[]string{"reason", "action"}, // action: triggered/suppressed/failed
	)
)
