package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagebound/bookstore-api/internal/dto"
	"github.com/pagebound/bookstore-api/internal/model"
	"github.com/pagebound/bookstore-api/internal/repository"
	"github.com/pagebound/bookstore-api/internal/service"
)

type BookHandler struct {
	catalogService *service.CatalogService
}

func NewBookHandler(catalogService *service.CatalogService) *BookHandler {
	return &BookHandler{catalogService: catalogService}
}

func (h *BookHandler) Create(c *gin.Context) {
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.catalogService.CreateBook(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *BookHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book ID"})
		return
	}

	resp, err := h.catalogService.GetBook(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Search serves the storefront listing. Inactive books never appear here.
func (h *BookHandler) Search(c *gin.Context) {
	h.search(c, false)
}

// SearchAll is the staff listing and includes inactive books.
func (h *BookHandler) SearchAll(c *gin.Context) {
	h.search(c, true)
}

func (h *BookHandler) search(c *gin.Context, includeInactive bool) {
	var req dto.SearchBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.catalogService.SearchBooks(c.Request.Context(), req, includeInactive)
	if err != nil {
		if errors.Is(err, model.ErrUnknownEnum) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *BookHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book ID"})
		return
	}

	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.catalogService.UpdateBook(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *BookHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book ID"})
		return
	}

	if err := h.catalogService.DeleteBook(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *BookHandler) SetStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book ID"})
		return
	}

	var req dto.SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.catalogService.SetStock(c.Request.Context(), id, req.Stock)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		case errors.Is(err, repository.ErrInvalidArgument):
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock must not be negative"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
