package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts search requests by outcome (matched, fallback, empty).
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_queries_total",
			Help: "Total number of search queries by outcome",
		},
		[]string{"outcome"},
	)

	// CatalogSize is the number of products currently indexed.
	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_catalog_size",
			Help: "Number of products in the search index",
		},
	)

	// ReindexDuration observes how long a full reindex from the catalog takes.
	ReindexDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_reindex_duration_seconds",
			Help:    "Duration of full catalog reindex runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
