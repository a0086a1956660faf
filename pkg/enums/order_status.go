package enums

import "fmt"

// OrderStatus tracks the lifecycle of a group order.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusOpen,
	OrderStatusAccepted,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusExpired,
}

// orderTransitions lists the statuses reachable from each status.
// accepted -> accepted is the supplier re-confirming after a participation change.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusOpen:     {OrderStatusAccepted, OrderStatusCancelled, OrderStatusExpired},
	OrderStatusAccepted: {OrderStatusAccepted, OrderStatusOpen, OrderStatusCompleted, OrderStatusCancelled, OrderStatusExpired},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// AcceptsParticipation reports whether vendors may join an order in this status.
func (s OrderStatus) AcceptsParticipation() bool {
	return s == OrderStatusOpen
}

// IsActive reports whether participants may still edit or leave.
func (s OrderStatus) IsActive() bool {
	return s == OrderStatusOpen || s == OrderStatusAccepted
}

// IsTerminal reports whether no further status change is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusExpired
}

// IsDeletable reports whether an order in this status may be removed.
func (s OrderStatus) IsDeletable() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo reports whether moving to next is allowed by the state machine.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
