// Package kafka publishes indexing events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/hues/pkg/eventstream"
)

// Config holds the Kafka publisher configuration.
type Config struct {
	// Brokers are the bootstrap broker addresses.
	Brokers []string

	// Topic receives every event.
	Topic string

	// WriteTimeout bounds a single publish. Defaults to 10s.
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes events as JSON messages keyed by collection name, so every
// event of a collection lands on the same partition.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher creates a publisher for c.
func NewPublisher(c Config, logger *slog.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return newPublisher(w, c.WriteTimeout, logger), nil
}

func newPublisher(w messageWriter, timeout time.Duration, logger *slog.Logger) *Publisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Publisher{writer: w, timeout: timeout, logger: logger}
}

// PublishIndexed writes event to the topic.
func (p *Publisher) PublishIndexed(ctx context.Context, event *eventstream.FingerprintIndexedEvent) error {
	if event == nil {
		return eventstream.ErrNilIndexedEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", event.EventID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.Collection),
		Value: payload,
		Time:  event.EmittedAt,
	}); err != nil {
		return fmt.Errorf("publishing event %s: %w", event.EventID, err)
	}

	p.logger.Debug("published indexed event",
		"event_id", event.EventID,
		"collection", event.Collection,
		"image_id", event.ImageID,
	)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
