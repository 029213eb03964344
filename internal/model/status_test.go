package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_HappyPath(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusProcessing))
	assert.True(t, OrderStatusProcessing.CanTransitionTo(OrderStatusShipping))
	assert.True(t, OrderStatusShipping.CanTransitionTo(OrderStatusDelivered))
}

func TestOrderStatus_Cancellation(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusCancelled))
	assert.True(t, OrderStatusProcessing.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusShipping.CanTransitionTo(OrderStatusCancelled))
}

func TestOrderStatus_NoSkipping(t *testing.T) {
	assert.False(t, OrderStatusPending.CanTransitionTo(OrderStatusShipping))
	assert.False(t, OrderStatusPending.CanTransitionTo(OrderStatusDelivered))
	assert.False(t, OrderStatusProcessing.CanTransitionTo(OrderStatusDelivered))
}

func TestOrderStatus_TerminalStatesAreClosed(t *testing.T) {
	all := []OrderStatus{
		OrderStatusPending, OrderStatusProcessing, OrderStatusShipping,
		OrderStatusDelivered, OrderStatusCancelled,
	}
	for _, next := range all {
		assert.False(t, OrderStatusDelivered.CanTransitionTo(next), "delivered -> %s", next)
		assert.False(t, OrderStatusCancelled.CanTransitionTo(next), "cancelled -> %s", next)
	}
	assert.True(t, OrderStatusDelivered.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusPending.Terminal())
}

func TestParseOrderStatus_RejectsUnknown(t *testing.T) {
	_, err := ParseOrderStatus("completed")
	assert.ErrorIs(t, err, ErrUnknownEnum)

	status, err := ParseOrderStatus("shipping")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipping, status)
}

func TestParseRole_RejectsUnknown(t *testing.T) {
	_, err := ParseRole("superuser")
	assert.ErrorIs(t, err, ErrUnknownEnum)

	role, err := ParseRole("staff")
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, role)
}

func TestBook_DerivedStatus(t *testing.T) {
	b := &Book{Active: true, Stock: 3}
	assert.Equal(t, BookStatusActive, b.Status())

	b.Stock = 0
	assert.Equal(t, BookStatusOutOfStock, b.Status())

	b.Active = false
	assert.Equal(t, BookStatusInactive, b.Status())
}
