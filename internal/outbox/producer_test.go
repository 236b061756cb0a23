package outbox

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestProducerReusesWriterPerTopic(t *testing.T) {
	producer := NewKafkaProducer([]string{"localhost:9092"})
	t.Cleanup(func() { _ = producer.Close() })

	first := producer.writerFor("activity_audit")
	second := producer.writerFor("activity_audit")
	require.Same(t, first, second)

	other := producer.writerFor("another_topic")
	require.NotSame(t, first, other)
}

func TestProducerWritersKeepScopeOrdering(t *testing.T) {
	producer := NewKafkaProducer([]string{"localhost:9092"})
	t.Cleanup(func() { _ = producer.Close() })

	writer := producer.writerFor("activity_audit")
	require.Equal(t, kafka.RequireAll, writer.RequiredAcks)
	require.IsType(t, &kafka.Hash{}, writer.Balancer, "partition keys must hash so one scope stays ordered")
}
