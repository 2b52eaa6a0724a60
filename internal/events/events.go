// Package events publishes audit events to Kafka.
package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher sends keyed messages to one topic.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewPublisher returns a Kafka publisher for topic, or a no-op publisher when
// no brokers are configured.
func NewPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 || topic == "" {
		return Noop{}
	}
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &KafkaPublisher{writer: writer, timeout: 10 * time.Second}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now().UTC(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop drops every message.
type Noop struct{}

func (Noop) Publish(context.Context, string, []byte) error { return nil }

func (Noop) Close() error { return nil }
