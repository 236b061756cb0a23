package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dlqProcessedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feed_service",
		Subsystem: "dlq",
		Name:      "messages_processed_total",
		Help:      "Dead-lettered audit events replayed to Kafka.",
	}, []string{"topic", "event_type"})

	dlqRequeuedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feed_service",
		Subsystem: "dlq",
		Name:      "messages_requeued_total",
		Help:      "Dead-lettered audit events reinserted into the primary outbox.",
	}, []string{"topic", "event_type"})

	dlqQuarantinedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feed_service",
		Subsystem: "dlq",
		Name:      "messages_quarantined_total",
		Help:      "Dead-lettered audit events parked after exhausting retries.",
	}, []string{"topic", "event_type"})

	dlqRetryCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feed_service",
		Subsystem: "dlq",
		Name:      "retry_scheduled_total",
		Help:      "Times a dead-lettered audit event was scheduled for a later retry.",
	}, []string{"topic", "event_type"})

	dlqBacklogGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "feed_service",
		Subsystem: "dlq",
		Name:      "queued_messages",
		Help:      "Audit events still waiting in the dead-letter queue.",
	})
)
