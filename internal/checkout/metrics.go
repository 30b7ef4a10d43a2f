package checkout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Total number of orders placed.",
	})

	shippingRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_shipping_rejections_total",
			Help: "Total number of rejected shipping forms by failing field.",
		},
		[]string{"field"},
	)
)
