package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/streetcart/groupbuy-backend/pkg/enums"
)

// OrderCreatedEvent announces a new group order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	SupplierID  uuid.UUID `json:"supplier_id"`
	Item        string    `json:"item"`
	MinQuantity int       `json:"min_quantity"`
	MaxQuantity int       `json:"max_quantity"`
	Deadline    time.Time `json:"deadline"`
}

// OrderUpdatedEvent is emitted when a supplier edits an order.
type OrderUpdatedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	Fields       []string  `json:"fields"`
	Recalculated bool      `json:"recalculated"`
}

// OrderStatusChangedEvent carries every status transition.
type OrderStatusChangedEvent struct {
	OrderID          uuid.UUID         `json:"order_id"`
	From             enums.OrderStatus `json:"from"`
	To               enums.OrderStatus `json:"to"`
	Reason           string            `json:"reason,omitempty"`
	TotalQuantity    int               `json:"total_quantity"`
	ParticipantCount int               `json:"participant_count"`
}

// OrderProcessedEarlyEvent is emitted when a supplier accepts below the minimum.
type OrderProcessedEarlyEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	TotalQuantity int       `json:"total_quantity"`
	MinQuantity   int       `json:"min_quantity"`
}

// OrderDeletedEvent is emitted after an order and its participants are removed.
type OrderDeletedEvent struct {
	OrderID          uuid.UUID         `json:"order_id"`
	Status           enums.OrderStatus `json:"status"`
	ParticipantCount int               `json:"participant_count"`
}

// ParticipationEvent covers join, quantity changes and leaving.
type ParticipationEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	VendorID      uuid.UUID `json:"vendor_id"`
	Quantity      int       `json:"quantity"`
	TotalQuantity int       `json:"total_quantity"`
}

// DeliveryChargesRecomputedEvent is emitted after charges are rewritten for an order.
type DeliveryChargesRecomputedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	RatePerKm    string    `json:"rate_per_km"`
	Participants int       `json:"participants"`
}

// ReviewSubmittedEvent is emitted when a vendor reviews a completed order.
type ReviewSubmittedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	VendorID   uuid.UUID `json:"vendor_id"`
	Rating     int       `json:"rating"`
}
