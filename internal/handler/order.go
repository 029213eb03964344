package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagebound/bookstore-api/internal/dto"
	"github.com/pagebound/bookstore-api/internal/middleware"
	"github.com/pagebound/bookstore-api/internal/model"
	"github.com/pagebound/bookstore-api/internal/repository"
	"github.com/pagebound/bookstore-api/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
	cartService  *service.CartService
	userRepo     repository.UserRepository
}

func NewOrderHandler(orderService *service.OrderService, cartService *service.CartService, userRepo repository.UserRepository) *OrderHandler {
	return &OrderHandler{orderService: orderService, cartService: cartService, userRepo: userRepo}
}

// Checkout turns the session cart into an order. The cart is cleared only
// after the order is durably created, so a failed checkout keeps the staged
// lines for another attempt.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	order, err := h.orderService.Checkout(c.Request.Context(), userID, h.cartService.Cart(userID), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		case errors.Is(err, service.ErrInvalidDiscount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "discount exceeds order total"})
		case errors.Is(err, model.ErrUnknownEnum), errors.Is(err, repository.ErrInvalidArgument):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrInsufficientStock):
			c.JSON(http.StatusConflict, gin.H{"error": "insufficient stock"})
		case errors.Is(err, service.ErrBookNotAvailable), errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusConflict, gin.H{"error": "book is no longer available"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	h.cartService.Clear(userID)
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requester, ok := h.requester(c)
	if !ok {
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), req, requester)
	if err != nil {
		if errors.Is(err, model.ErrUnknownEnum) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{
		Orders: items, Total: total, Page: req.Page, Limit: req.Limit,
	})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	requester, ok := h.requester(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), orderID, requester)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrOrderAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) GetOrderByCode(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetByCode(c.Request.Context(), c.Param("code"), requester)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrOrderAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// UpdateStatus applies one fulfillment transition on behalf of the signed-in
// staff member.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requester, ok := h.requester(c)
	if !ok {
		return
	}

	order, err := h.orderService.AdvanceStatus(c.Request.Context(), orderID, req.Status, requester)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnknownEnum):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
		case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) requester(c *gin.Context) (*model.User, bool) {
	user, err := h.userRepo.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return user, true
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ID:        item.ID,
			BookID:    item.BookID,
			Title:     item.Title,
			Author:    item.Author,
			ImageURL:  item.ImageURL,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	return dto.OrderResponse{
		ID:              order.ID,
		Code:            order.Code,
		CustomerID:      order.CustomerID,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		CustomerPhone:   order.CustomerPhone,
		ShippingAddress: order.ShippingAddress,
		TotalAmount:     order.TotalAmount,
		ShippingFee:     order.ShippingFee,
		DiscountAmount:  order.DiscountAmount,
		FinalAmount:     order.FinalAmount,
		Status:          string(order.Status),
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   string(order.PaymentStatus),
		StaffName:       order.StaffName,
		Items:           items,
		CreatedAt:       order.CreatedAt,
		DeliveredAt:     order.DeliveredAt,
	}
}
