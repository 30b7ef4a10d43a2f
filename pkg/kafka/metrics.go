package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_events_published_total",
			Help: "Events written to Kafka by topic and event type",
		},
		[]string{"topic", "event_type"},
	)

	eventPublishErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_event_publish_errors_total",
			Help: "Failed Kafka writes by topic and event type",
		},
		[]string{"topic", "event_type"},
	)

	eventPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_event_publish_duration_seconds",
			Help:    "Duration of Kafka writes in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"topic"},
	)
)
