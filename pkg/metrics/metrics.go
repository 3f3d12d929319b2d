// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ConversationsTotal tracks total conversations created.
	ConversationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
		[]string{"tenant_id"},
	)

	// TurnsIngestedTotal tracks total turns appended to conversations.
	TurnsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turns_ingested_total",
			Help: "Total turns appended",
		},
		[]string{"tenant_id", "role"},
	)

	// AnalysesTotal tracks completed pulse analyses.
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_analyses_total",
			Help: "Total pulse analyses run",
		},
		[]string{"tenant_id", "status"},
	)

	// AnalysisDuration tracks pulse analysis duration.
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pulse_analysis_duration_seconds",
			Help:    "Pulse analysis duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// PatternsDetectedTotal tracks detected patterns by type.
	PatternsDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_patterns_detected_total",
			Help: "Total trend patterns detected",
		},
		[]string{"pattern_type"},
	)

	// AnalysisCacheHits tracks analysis cache hits and misses.
	AnalysisCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_analysis_cache_total",
			Help: "Analysis cache lookups",
		},
		[]string{"result"},
	)

	// LLMEnrichmentDuration tracks report narrative generation duration.
	LLMEnrichmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_enrichment_duration_seconds",
			Help:    "Report enrichment duration in seconds",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed during enrichment.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"provider", "direction"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordAnalysis records a completed analysis and its detected patterns.
func RecordAnalysis(tenantID, status string, duration float64, patternTypes []string) {
	AnalysesTotal.WithLabelValues(tenantID, status).Inc()
	AnalysisDuration.Observe(duration)
	for _, t := range patternTypes {
		PatternsDetectedTotal.WithLabelValues(t).Inc()
	}
}

// RecordCacheLookup records an analysis cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		AnalysisCacheHits.WithLabelValues("hit").Inc()
	} else {
		AnalysisCacheHits.WithLabelValues("miss").Inc()
	}
}
