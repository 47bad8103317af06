package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	outcomeProcessed    = "processed"
	outcomeFailed       = "failed"
	outcomeDuplicate    = "duplicate"
	outcomeDeadLettered = "dead_lettered"
	outcomeOK           = "ok"
	outcomeError        = "error"
)

var (
	consumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "kafka",
			Name:      "consumed_total",
			Help:      "Kafka messages consumed, by outcome.",
		},
		[]string{"topic", "group", "outcome"},
	)

	handleSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "kafka",
			Name:      "handle_duration_seconds",
			Help:      "Time spent in the event handler, retries included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"topic", "group"},
	)

	publishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "kafka",
			Name:      "published_total",
			Help:      "Kafka publish attempts, by outcome.",
		},
		[]string{"topic", "outcome"},
	)

	publishSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Latency of a single WriteMessages call.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)
