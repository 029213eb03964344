package repository

import "errors"

var (
	// ErrNotFound covers missing books, categories, orders and users.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock means a debit would take stock below zero; the
	// row is left unchanged.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidArgument flags malformed quantity/price/stock input before
	// it reaches the store.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidTransition is an order-status edge outside the allowed set.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrDuplicateOrderCode surfaces the orders.order_code unique
	// constraint; callers retry code generation a bounded number of times.
	ErrDuplicateOrderCode = errors.New("duplicate order code")
)
