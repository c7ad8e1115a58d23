// Package metrics defines Prometheus metrics for sheetsight.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sheetsight_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetsight_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetsight_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	AnalysisRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetsight_analysis_runs_total",
			Help: "Completed analysis pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sheetsight_analysis_duration_seconds",
			Help:    "Analysis pipeline duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetsight_llm_calls_total",
			Help: "Language model calls by outcome",
		},
		[]string{"outcome"},
	)

	LLMRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetsight_llm_retries_total",
			Help: "Language model call retries",
		},
	)

	TurnEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetsight_chat_turn_evictions_total",
			Help: "Chat turns evicted by the per-dataset storage cap",
		},
	)

	TurnsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetsight_chat_turns_purged_total",
			Help: "Chat turns deleted by the retention sweeper",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		AnalysisRuns, AnalysisDuration,
		LLMCalls, LLMRetries,
		TurnEvictions, TurnsPurged,
	)
}
