package model

import (
	"errors"
	"fmt"
)

// ErrUnknownEnum is returned when a value read from storage does not decode
// to a known enum member. Decoding is total and fails loudly instead of
// defaulting, so corrupted rows surface immediately.
var ErrUnknownEnum = errors.New("unknown enum value")

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return Role(raw), nil
	}
	return "", fmt.Errorf("%w: role %q", ErrUnknownEnum, raw)
}

type BookStatus string

const (
	BookStatusActive     BookStatus = "active"
	BookStatusInactive   BookStatus = "inactive"
	BookStatusOutOfStock BookStatus = "out_of_stock"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipping   OrderStatus = "shipping"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch OrderStatus(raw) {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipping,
		OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(raw), nil
	}
	return "", fmt.Errorf("%w: order status %q", ErrUnknownEnum, raw)
}

// orderTransitions is the closed edge set of the fulfillment state machine:
// forward-only happy path plus early cancellation. Delivered and Cancelled
// are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipping, OrderStatusCancelled},
	OrderStatusShipping:   {OrderStatusDelivered},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

type PaymentMethod string

const (
	PaymentMethodCOD  PaymentMethod = "cod"
	PaymentMethodCard PaymentMethod = "card"
)

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch PaymentMethod(raw) {
	case PaymentMethodCOD, PaymentMethodCard:
		return PaymentMethod(raw), nil
	}
	return "", fmt.Errorf("%w: payment method %q", ErrUnknownEnum, raw)
}

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch PaymentStatus(raw) {
	case PaymentStatusUnpaid, PaymentStatusPaid:
		return PaymentStatus(raw), nil
	}
	return "", fmt.Errorf("%w: payment status %q", ErrUnknownEnum, raw)
}
