package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateGroupOrder  OutboxAggregateType = "group_order"
	AggregateParticipant OutboxAggregateType = "participant"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateGroupOrder,
	AggregateParticipant,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventGroupOrderCreated          OutboxEventType = "group_order_created"
	EventGroupOrderUpdated          OutboxEventType = "group_order_updated"
	EventGroupOrderStatusChanged    OutboxEventType = "group_order_status_changed"
	EventGroupOrderProcessedEarly   OutboxEventType = "group_order_processed_early"
	EventGroupOrderDeleted          OutboxEventType = "group_order_deleted"
	EventParticipantJoined          OutboxEventType = "participant_joined"
	EventParticipantUpdated         OutboxEventType = "participant_updated"
	EventParticipantLeft            OutboxEventType = "participant_left"
	EventDeliveryChargesRecomputed  OutboxEventType = "delivery_charges_recomputed"
	EventParticipantReviewSubmitted OutboxEventType = "participant_review_submitted"
)

var validEventTypes = []OutboxEventType{
	EventGroupOrderCreated,
	EventGroupOrderUpdated,
	EventGroupOrderStatusChanged,
	EventGroupOrderProcessedEarly,
	EventGroupOrderDeleted,
	EventParticipantJoined,
	EventParticipantUpdated,
	EventParticipantLeft,
	EventDeliveryChargesRecomputed,
	EventParticipantReviewSubmitted,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
