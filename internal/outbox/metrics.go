package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveredCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feed_service",
		Subsystem: "outbox",
		Name:      "events_delivered_total",
		Help:      "Audit events handed to Kafka by the dispatcher.",
	})

	failedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feed_service",
		Subsystem: "outbox",
		Name:      "events_failed_total",
		Help:      "Audit events that could not be published and were routed to the DLQ.",
	})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "feed_service",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Wall time of one claim-deliver-mark outbox pass.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	dlqCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feed_service",
		Subsystem: "outbox",
		Name:      "events_dlq_total",
		Help:      "Audit events diverted to the dead-letter queue, by topic.",
	}, []string{"topic"})
)
