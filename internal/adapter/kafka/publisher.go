package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Publisher produces dashboard snapshots to a Kafka topic.
// It implements weather.SnapshotPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the snapshot topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes and writes one snapshot. Snapshots for the same location
// share a key and land on the same partition.
func (p *Publisher) Publish(ctx context.Context, d weather.Dashboard) error {
	msg, err := serializeToMessage(d)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write snapshot %s: %w", d.ID, err)
	}
	p.logger.Debug("snapshot published", "id", d.ID, "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a Dashboard into a Kafka message.
func serializeToMessage(d weather.Dashboard) (kafkago.Message, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(weather.SnapshotKey(d.Query)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "location", Value: []byte(d.Location)},
			{Key: "updated_at", Value: []byte(d.UpdatedAt.Format(time.RFC3339))},
		},
	}, nil
}

var _ weather.SnapshotPublisher = (*Publisher)(nil)
