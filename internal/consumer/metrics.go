package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	processedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feed_service",
		Subsystem: "consumer",
		Name:      "messages_processed_total",
		Help:      "Audit events ingested into the feed store.",
	}, []string{"topic", "event_type"})

	handlerErrorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feed_service",
		Subsystem: "consumer",
		Name:      "handler_errors_total",
		Help:      "Audit events the feed store rejected, by topic and event type.",
	}, []string{"topic", "event_type"})

	decodeErrorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feed_service",
		Subsystem: "consumer",
		Name:      "decode_errors_total",
		Help:      "Records that failed wire-format decoding, by topic.",
	}, []string{"topic"})

	lastMessageGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "feed_service",
		Subsystem: "consumer",
		Name:      "last_message_timestamp_seconds",
		Help:      "Broker timestamp of the newest ingested audit event per topic.",
	}, []string{"topic"})
)

func recordProcessed(msg Message) {
	processedCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
	if !msg.Timestamp.IsZero() {
		lastMessageGauge.WithLabelValues(msg.Topic).Set(float64(msg.Timestamp.Unix()))
	}
}

func recordHandlerError(msg Message) {
	handlerErrorCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
}

func recordDecodeError(topic string) {
	decodeErrorCounter.WithLabelValues(topic).Inc()
}
