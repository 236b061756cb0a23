// Package consumer ingests backend audit events from Kafka into the
// feed store.
package consumer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Records published by the dispatcher frame their JSON payload the
// Confluent way: magic byte 0x00 followed by a 4-byte big-endian
// schema ID.
const wireHeaderLen = 5

// Reader exposes the minimal kafka.Reader interface needed by the processor.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler applies one decoded audit event to the feed store.
type Handler interface {
	Handle(context.Context, Message) error
}

// Message is one audit record pulled off the activity_audit topic,
// unframed and annotated with the routing headers the dispatcher set.
type Message struct {
	Topic         string
	Partition     int
	Offset        int64
	Timestamp     time.Time
	EventType     string
	TenantID      string
	SchemaSubject string
	SchemaID      int
	Payload       json.RawMessage
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *log.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// Processor drives the ingestion loop: fetch an audit record, unframe
// it, hand it to the Handler, and commit the offset. Offsets are only
// committed once the handler has persisted the event, so a crash
// replays rather than drops; the store's idempotent writes absorb the
// replays.
type Processor struct {
	reader  Reader
	handler Handler
	logger  *log.Logger
}

// NewProcessor constructs a Processor with the provided reader and handler.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:  reader,
		handler: handler,
		logger:  log.New(log.Writer(), "[feed-consumer] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run blocks, ingesting audit records until the context is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			p.logger.Printf("fetch error: %v", err)
			continue
		}

		if p.dispatch(ctx, msg) {
			if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
				p.logger.Printf("commit error (topic=%s, offset=%d): %v", msg.Topic, msg.Offset, commitErr)
			}
		}
	}
}

// dispatch decodes and handles one record. It reports whether the
// offset should be committed: malformed records are committed so a
// poison pill cannot wedge the partition, handler failures are not so
// the record is retried.
func (p *Processor) dispatch(ctx context.Context, msg kafka.Message) bool {
	event, err := decodeAuditRecord(msg)
	if err != nil {
		p.logger.Printf("decode error (topic=%s, partition=%d, offset=%d): %v", msg.Topic, msg.Partition, msg.Offset, err)
		recordDecodeError(msg.Topic)
		return true
	}

	if err := p.handler.Handle(ctx, event); err != nil {
		p.logger.Printf("handler error (event_type=%s, tenant=%s): %v", event.EventType, event.TenantID, err)
		recordHandlerError(event)
		return false
	}

	recordProcessed(event)
	return true
}

func decodeAuditRecord(msg kafka.Message) (Message, error) {
	if len(msg.Value) < wireHeaderLen {
		return Message{}, fmt.Errorf("record too short for wire framing: %d bytes", len(msg.Value))
	}
	if msg.Value[0] != 0 {
		return Message{}, fmt.Errorf("unexpected magic byte 0x%02x", msg.Value[0])
	}

	headers := headerMap(msg.Headers)
	eventType := headers["event_type"]
	if eventType == "" {
		return Message{}, errors.New("missing event_type header")
	}

	return Message{
		Topic:         msg.Topic,
		Partition:     msg.Partition,
		Offset:        msg.Offset,
		Timestamp:     msg.Time,
		EventType:     eventType,
		TenantID:      headers["tenant_id"],
		SchemaSubject: headers["schema_subject"],
		SchemaID:      int(binary.BigEndian.Uint32(msg.Value[1:wireHeaderLen])),
		Payload:       json.RawMessage(append([]byte(nil), msg.Value[wireHeaderLen:]...)),
	}, nil
}

func headerMap(headers []kafka.Header) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Key] = string(h.Value)
	}
	return m
}
