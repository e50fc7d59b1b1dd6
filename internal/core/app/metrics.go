package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	appointmentOpsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "syncengine",
			Name:      "appointment_operations_total",
			Help:      "Total appointment operations by outcome.",
		},
		[]string{"operation", "outcome"}, // operation: create|update|delete
	)

	sideEffectFailuresCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "syncengine",
			Name:      "side_effect_failures_total",
			Help:      "Total best-effort side effect failures.",
		},
		[]string{"adapter"}, // calendar|messaging|cache|events
	)

	notificationDispatchCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "syncengine",
			Name:      "notification_dispatch_total",
			Help:      "Total notification dispatch attempts by final status.",
		},
		[]string{"type", "status"}, // status: sent|failed|unavailable
	)

	adapterRequestDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "syncengine",
			Name:      "adapter_request_duration_seconds",
			Help:      "Duration of calls to external adapters.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"adapter", "call"},
	)
)
