package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatai",
			Subsystem: "api",
			Name:      "registrations_total",
			Help:      "Total successful user registrations",
		},
	)

	// TurnsTotal counts turn submissions by outcome: ok, completion_error,
	// persistence_error, delivery_error.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatai",
			Subsystem: "api",
			Name:      "turns_total",
			Help:      "Total turn submissions by outcome",
		},
		[]string{"outcome"},
	)

	CompletionFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatai",
			Subsystem: "api",
			Name:      "completion_fallbacks_total",
			Help:      "Turns where the engine returned no usable content and the fallback reply was used",
		},
	)
)
