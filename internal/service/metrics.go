package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Orders successfully placed.",
	})

	reviewsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_reviews_created_total",
		Help: "Product reviews created.",
	})

	refundsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_refunds_total",
		Help: "Refunds recorded against orders.",
	})
)
