package outbox

import (
	"context"
	"time"

	"github.com/streetcart/groupbuy-backend/pkg/db/models"
)

// Message is the transport-neutral form of an outbox row.
type Message struct {
	Key        string
	Data       []byte
	Attributes map[string]string
}

// Sink delivers messages to a broker. Send blocks until the broker acknowledges.
type Sink interface {
	Name() string
	Send(ctx context.Context, msg Message) error
	Close() error
}

// NonRetryableError marks failures that should park the row immediately.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string { return e.Err.Error() }
func (e NonRetryableError) Unwrap() error { return e.Err }

// MessageFor builds the broker message for an outbox row.
func MessageFor(event models.OutboxEvent, envelope PayloadEnvelope) Message {
	return Message{
		Key:  event.AggregateID.String(),
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	}
}
