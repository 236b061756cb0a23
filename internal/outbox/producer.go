package outbox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer delivers claimed outbox batches. Records carry a
// tenant:scope_type:scope_id partition key, so writers hash the key to
// keep every event for one feed scope in a single partition and in
// order. Writers are built on first use per topic and reused.
type KafkaProducer struct {
	addr    net.Addr
	mu      sync.RWMutex
	writers map[string]*kafka.Writer
}

// NewKafkaProducer creates a producer for the given broker addresses.
func NewKafkaProducer(brokers []string) *KafkaProducer {
	return &KafkaProducer{
		addr:    kafka.TCP(brokers...),
		writers: make(map[string]*kafka.Writer),
	}
}

// WriteMessages delivers msgs to topic, waiting for acknowledgement
// from all in-sync replicas before returning.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	return p.writerFor(topic).WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writerFor(topic string) *kafka.Writer {
	p.mu.RLock()
	writer := p.writers[topic]
	p.mu.RUnlock()
	if writer != nil {
		return writer
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if writer = p.writers[topic]; writer == nil {
		writer = &kafka.Writer{
			Addr:         p.addr,
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			BatchTimeout: 50 * time.Millisecond,
		}
		p.writers[topic] = writer
	}
	return writer
}

// Close flushes and closes every writer.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer for %s: %w", topic, err))
		}
	}
	p.writers = make(map[string]*kafka.Writer)
	return errors.Join(errs...)
}
