package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/pagebound/bookstore-api/internal/cart"
	"github.com/pagebound/bookstore-api/internal/dto"
	"github.com/pagebound/bookstore-api/internal/model"
	"github.com/pagebound/bookstore-api/internal/query"
	"github.com/pagebound/bookstore-api/internal/repository"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")
	ErrInvalidDiscount   = errors.New("discount exceeds order total")
)

// codeRetries bounds how often checkout retries the whole creation
// transaction after losing an order-code race.
const codeRetries = 3

const confirmationQueue = "order_confirmations"

type OrderService struct {
	orderRepo   repository.OrderRepository
	bookRepo    repository.BookRepository
	userRepo    repository.UserRepository
	amqpCh      *amqp.Channel
	shippingFee decimal.Decimal
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	amqpCh *amqp.Channel,
	shippingFee decimal.Decimal,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo, bookRepo: bookRepo, userRepo: userRepo,
		amqpCh: amqpCh, shippingFee: shippingFee,
	}
}

// Checkout turns the staged cart into a durable order: it re-validates every
// line against live stock and current prices, then hands the repository one
// transactional create. The cart is left intact either way; the caller
// clears it after a successful return so a failed checkout can simply be
// retried.
func (s *OrderService) Checkout(ctx context.Context, customerID uuid.UUID, c *cart.Cart, req dto.CheckoutRequest) (*model.Order, error) {
	entries := c.Entries()
	if len(entries) == 0 {
		return nil, ErrEmptyCart
	}

	customer, err := s.userRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("customer %s: %w", customerID, repository.ErrNotFound)
	}

	method, err := model.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		CustomerID:      customerID,
		CustomerName:    req.RecipientName,
		CustomerEmail:   customer.Email,
		CustomerPhone:   req.Phone,
		ShippingAddress: req.ShippingAddress,
		ShippingFee:     s.shippingFee,
		DiscountAmount:  decimal.Zero,
		Status:          model.OrderStatusPending,
		PaymentMethod:   method,
		PaymentStatus:   model.PaymentStatusUnpaid,
	}
	if req.DiscountAmount != nil {
		if req.DiscountAmount.IsNegative() {
			return nil, fmt.Errorf("%w: negative discount", repository.ErrInvalidArgument)
		}
		order.DiscountAmount = *req.DiscountAmount
	}

	// Line items are priced from the catalog as of now, not from the prices
	// staged in the cart, so a price change between staging and checkout
	// cannot go stale into the order.
	for _, entry := range entries {
		if entry.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity %d", repository.ErrInvalidArgument, entry.Quantity)
		}
		book, err := s.bookRepo.GetByID(ctx, entry.Book.ID)
		if err != nil {
			return nil, fmt.Errorf("get book: %w", err)
		}
		if book == nil {
			return nil, fmt.Errorf("book %s: %w", entry.Book.ID, repository.ErrNotFound)
		}
		if !book.Active {
			return nil, ErrBookNotAvailable
		}
		if book.Stock < entry.Quantity {
			return nil, fmt.Errorf("book %s: %w", book.ID, repository.ErrInsufficientStock)
		}

		lineTotal := book.Price.Mul(decimal.NewFromInt(int64(entry.Quantity)))
		order.Items = append(order.Items, model.OrderItem{
			BookID: book.ID, Title: book.Title, Author: book.Author, ImageURL: book.ImageURL,
			UnitPrice: book.Price, Quantity: entry.Quantity, LineTotal: lineTotal,
		})
	}

	order.ComputeFinal()
	if order.FinalAmount.IsNegative() {
		return nil, ErrInvalidDiscount
	}

	for attempt := 0; ; attempt++ {
		err = s.orderRepo.Create(ctx, order)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateOrderCode) && attempt < codeRetries-1 {
			continue
		}
		return nil, err
	}

	s.publishConfirmation(ctx, order)
	return order, nil
}

// publishConfirmation hands the committed order to the confirmation worker.
// Delivery is best effort: the order already exists, and a lost message
// only costs a confirmation notice.
func (s *OrderService) publishConfirmation(ctx context.Context, order *model.Order) {
	if s.amqpCh == nil {
		return
	}
	msg, _ := json.Marshal(model.OrderMessage{
		OrderID: order.ID, OrderCode: order.Code, CustomerID: order.CustomerID,
	})
	_ = s.amqpCh.PublishWithContext(ctx, "", confirmationQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         msg,
		DeliveryMode: amqp.Persistent,
	})
}

func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID, requester *model.User) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if requester.Role == model.RoleCustomer && order.CustomerID != requester.ID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

// GetByCode resolves the human-readable order code, for staff looking up an
// order from a customer inquiry.
func (s *OrderService) GetByCode(ctx context.Context, code string, requester *model.User) (*model.Order, error) {
	order, err := s.orderRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if requester.Role == model.RoleCustomer && order.CustomerID != requester.ID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

// List searches orders through the query compiler. Customers are pinned to
// their own orders regardless of the filter they send.
func (s *OrderService) List(ctx context.Context, req dto.ListOrdersRequest, requester *model.User) ([]model.Order, int, error) {
	filter, err := buildOrderFilter(req)
	if err != nil {
		return nil, 0, err
	}
	if requester.Role == model.RoleCustomer {
		filter.CustomerID = &requester.ID
	}
	return s.orderRepo.List(ctx, filter)
}

func buildOrderFilter(req dto.ListOrdersRequest) (query.OrderFilter, error) {
	sort, err := query.ParseOrderSort(req.Sort)
	if err != nil {
		return query.OrderFilter{}, err
	}

	filter := query.OrderFilter{
		Query:  req.Query,
		Sort:   sort,
		Limit:  req.Limit,
		Offset: (req.Page - 1) * req.Limit,
	}
	if req.Status != "" {
		status, err := model.ParseOrderStatus(req.Status)
		if err != nil {
			return query.OrderFilter{}, err
		}
		filter.Status = &status
	}
	if req.StaffID != "" {
		id, err := uuid.Parse(req.StaffID)
		if err != nil {
			return query.OrderFilter{}, fmt.Errorf("%w: staff id %q", model.ErrUnknownEnum, req.StaffID)
		}
		filter.StaffID = &id
	}
	if req.From != "" {
		from, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			return query.OrderFilter{}, fmt.Errorf("parse from date: %w", err)
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := time.Parse("2006-01-02", req.To)
		if err != nil {
			return query.OrderFilter{}, fmt.Errorf("parse to date: %w", err)
		}
		// Inclusive end day.
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	return filter, nil
}

// AdvanceStatus applies one fulfillment transition on behalf of a staff
// actor. The edge itself is validated inside the repository transaction.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID uuid.UUID, rawStatus string, actor *model.User) (*model.Order, error) {
	next, err := model.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	var staff *model.User
	if actor != nil && actor.Role != model.RoleCustomer {
		staff = actor
	}
	if err := s.orderRepo.UpdateStatus(ctx, orderID, next, staff); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
