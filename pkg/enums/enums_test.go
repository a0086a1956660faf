package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusOpen, OrderStatusAccepted, true},
		{OrderStatusOpen, OrderStatusCancelled, true},
		{OrderStatusOpen, OrderStatusExpired, true},
		{OrderStatusOpen, OrderStatusCompleted, false},
		{OrderStatusAccepted, OrderStatusOpen, true},
		{OrderStatusAccepted, OrderStatusAccepted, true},
		{OrderStatusAccepted, OrderStatusCompleted, true},
		{OrderStatusAccepted, OrderStatusCancelled, true},
		{OrderStatusAccepted, OrderStatusExpired, true},
		{OrderStatusCompleted, OrderStatusOpen, false},
		{OrderStatusCancelled, OrderStatusOpen, false},
		{OrderStatusExpired, OrderStatusOpen, false},
		{OrderStatusExpired, OrderStatusAccepted, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatusPredicates(t *testing.T) {
	assert.True(t, OrderStatusOpen.AcceptsParticipation())
	assert.False(t, OrderStatusAccepted.AcceptsParticipation())
	assert.True(t, OrderStatusAccepted.IsActive())
	assert.False(t, OrderStatusExpired.IsActive())
	assert.True(t, OrderStatusCompleted.IsDeletable())
	assert.True(t, OrderStatusCancelled.IsDeletable())
	assert.False(t, OrderStatusExpired.IsDeletable())
	assert.True(t, OrderStatusExpired.IsTerminal())
	assert.False(t, OrderStatusOpen.IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("accepted")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusAccepted, status)

	_, err = ParseOrderStatus("pending")
	assert.Error(t, err)
	assert.False(t, OrderStatus("pending").IsValid())
}

func TestParseUserRole(t *testing.T) {
	role, err := ParseUserRole(" Supplier ")
	require.NoError(t, err)
	assert.Equal(t, UserRoleSupplier, role)

	_, err = ParseUserRole("admin")
	assert.Error(t, err)
}

func TestParseOutboxEventType(t *testing.T) {
	eventType, err := ParseOutboxEventType("participant_joined")
	require.NoError(t, err)
	assert.Equal(t, EventParticipantJoined, eventType)
	assert.True(t, AggregateGroupOrder.IsValid())

	_, err = ParseOutboxEventType("order_created")
	assert.Error(t, err)
}
