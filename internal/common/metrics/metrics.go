// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_processed_total",
			Help: "Total number of incoming updates processed, by kind",
		},
		[]string{"kind"},
	)

	HandlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_handler_failures_total",
			Help: "Total number of handler failures, by handler and error code",
		},
		[]string{"handler", "error_code"},
	)

	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "bot_handler_duration_seconds",
			Help: "Duration of handler execution in seconds",
		},
		[]string{"handler"},
	)

	ExtractionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_extraction_outcomes_total",
			Help: "Outcomes of language-understanding calls, by extracted kind",
		},
		[]string{"kind"},
	)

	SummaryCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_summary_cache_total",
			Help: "Summary cache lookups, by result (hit/miss)",
		},
		[]string{"result"},
	)
)
