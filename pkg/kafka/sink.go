package kafka

import (
	"context"
	"errors"
	"strings"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/streetcart/groupbuy-backend/pkg/config"
	"github.com/streetcart/groupbuy-backend/pkg/outbox"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Sink forwards outbox messages to a Kafka topic keyed by aggregate id, so
// every event of one order lands on the same partition.
type Sink struct {
	writer messageWriter
}

// NewWriter builds the orders topic writer.
func NewWriter(cfg config.KafkaConfig) (*kafkago.Writer, error) {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.OrdersTopic) == "" {
		return nil, errors.New("kafka orders topic is required")
	}
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  cfg.OrdersTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}, nil
}

func NewSink(cfg config.KafkaConfig) (*Sink, error) {
	w, err := NewWriter(cfg)
	if err != nil {
		return nil, err
	}
	return &Sink{writer: w}, nil
}

func (s *Sink) Name() string { return "kafka" }

func (s *Sink) Send(ctx context.Context, msg outbox.Message) error {
	if s == nil || s.writer == nil {
		return outbox.NonRetryableError{Err: errors.New("kafka writer not configured")}
	}
	headers := make([]kafkago.Header, 0, len(msg.Attributes))
	for k, v := range msg.Attributes {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
	}
	return s.writer.WriteMessages(ctx, kafkago.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Data,
		Headers: headers,
	})
}

func (s *Sink) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
