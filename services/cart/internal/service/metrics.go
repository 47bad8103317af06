package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts cart mutations by operation and result
	// (saved, noop, conflict, rejected).
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Total number of cart mutations by operation and result",
		},
		[]string{"operation", "result"},
	)

	// CartValue observes cart totals after each saved mutation.
	CartValue = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cart_value",
			Help:    "Cart total after a saved mutation, in whole currency units",
			Buckets: prometheus.ExponentialBuckets(100, 2, 12),
		},
	)
)
