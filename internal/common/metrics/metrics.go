// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total number of chat turns processed, by resulting route",
		},
		[]string{"route"},
	)

	ExtractionFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_extraction_fallbacks_total",
			Help: "Turns where the extractor response was unusable and the fallback decision was substituted",
		},
	)

	ItinerariesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itineraries_generated_total",
			Help: "Itinerary generation attempts by outcome",
		},
		[]string{"outcome"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "itinerary_generation_duration_seconds",
			Help:    "Duration of the research and planning pipeline in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_sessions_in_flight",
			Help: "Number of turns currently being processed",
		},
	)
)
