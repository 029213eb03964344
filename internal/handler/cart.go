package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagebound/bookstore-api/internal/cart"
	"github.com/pagebound/bookstore-api/internal/dto"
	"github.com/pagebound/bookstore-api/internal/middleware"
	"github.com/pagebound/bookstore-api/internal/service"
)

type CartHandler struct {
	cartService *service.CartService
}

func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartService.Snapshot(middleware.GetUserID(c)))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.cartService.AddItem(c.Request.Context(), userID, req.BookID); err != nil {
		switch {
		case errors.Is(err, service.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		case errors.Is(err, service.ErrBookNotAvailable):
			c.JSON(http.StatusConflict, gin.H{"error": "book is not available for sale"})
		case errors.Is(err, cart.ErrOutOfStock):
			c.JSON(http.StatusConflict, gin.H{"error": "book is out of stock"})
		case errors.Is(err, cart.ErrStockLimitReached):
			c.JSON(http.StatusConflict, gin.H{"error": "stock limit reached"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, h.cartService.Snapshot(userID))
}

func (h *CartHandler) IncreaseItem(c *gin.Context) {
	h.adjustItem(c, h.cartService.Increase)
}

func (h *CartHandler) DecreaseItem(c *gin.Context) {
	h.adjustItem(c, h.cartService.Decrease)
}

func (h *CartHandler) adjustItem(c *gin.Context, adjust func(userID, bookID uuid.UUID) error) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book ID"})
		return
	}

	userID := middleware.GetUserID(c)
	if err := adjust(userID, bookID); err != nil {
		switch {
		case errors.Is(err, cart.ErrNotInCart):
			c.JSON(http.StatusNotFound, gin.H{"error": "book is not in the cart"})
		case errors.Is(err, cart.ErrStockLimitReached):
			c.JSON(http.StatusConflict, gin.H{"error": "stock limit reached"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, h.cartService.Snapshot(userID))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book ID"})
		return
	}

	h.cartService.Remove(middleware.GetUserID(c), bookID)
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) Clear(c *gin.Context) {
	h.cartService.Clear(middleware.GetUserID(c))
	c.Status(http.StatusNoContent)
}
