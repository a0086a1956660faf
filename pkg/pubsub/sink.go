package pubsub

import (
	"context"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/streetcart/groupbuy-backend/pkg/outbox"
)

type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) publishResult
	Stop()
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// Sink forwards outbox messages to a Pub/Sub topic.
type Sink struct {
	pub publisher
}

// NewSink wraps the orders topic publisher of client.
func NewSink(client *Client) (*Sink, error) {
	p := client.OrdersPublisher()
	if p == nil {
		return nil, errNoTopic
	}
	return &Sink{pub: &gcpPublisher{Publisher: p}}, nil
}

func (s *Sink) Name() string { return "pubsub" }

func (s *Sink) Send(ctx context.Context, msg outbox.Message) error {
	if s == nil || s.pub == nil {
		return outbox.NonRetryableError{Err: errors.New("pubsub publisher not configured")}
	}
	result := s.pub.Publish(ctx, &pubsub.Message{
		Data:       msg.Data,
		Attributes: msg.Attributes,
	})
	if result == nil {
		return outbox.NonRetryableError{Err: errors.New("publisher returned nil result")}
	}
	_, err := result.Get(ctx)
	return err
}

func (s *Sink) Close() error {
	if s != nil && s.pub != nil {
		s.pub.Stop()
	}
	return nil
}

type gcpPublisher struct {
	*pubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	return p.Publisher.Publish(ctx, msg)
}
