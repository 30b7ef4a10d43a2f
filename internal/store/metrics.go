package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Total number of cart mutations by operation.",
		},
		[]string{"operation"},
	)

	likedTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_liked_toggles_total",
			Help: "Total number of liked-set toggles by resulting state.",
		},
		[]string{"state"},
	)

	persistFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_preference_failures_total",
			Help: "Total number of failed preference loads and saves.",
		},
		[]string{"collection", "operation"},
	)
)
