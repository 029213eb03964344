package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Auth ---

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
}

// --- Category ---

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
	Active      *bool  `json:"active"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
	Active      *bool   `json:"active"`
}

type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sort_order"`
	Active      bool      `json:"active"`
	BookCount   int       `json:"book_count"`
}

// --- Book ---

type CreateBookRequest struct {
	Title       string          `json:"title" binding:"required"`
	Author      string          `json:"author" binding:"required"`
	Publisher   string          `json:"publisher"`
	CategoryID  uuid.UUID       `json:"category_id" binding:"required"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock" binding:"min=0"`
}

type UpdateBookRequest struct {
	Title       *string          `json:"title"`
	Author      *string          `json:"author"`
	Publisher   *string          `json:"publisher"`
	CategoryID  *uuid.UUID       `json:"category_id"`
	Description *string          `json:"description"`
	ImageURL    *string          `json:"image_url"`
	Price       *decimal.Decimal `json:"price"`
	Active      *bool            `json:"active"`
}

type SetStockRequest struct {
	Stock int `json:"stock" binding:"min=0"`
}

type SearchBooksRequest struct {
	Page       int     `form:"page,default=1" binding:"min=1"`
	Limit      int     `form:"limit,default=20" binding:"min=1,max=100"`
	Query      string  `form:"q"`
	CategoryID string  `form:"category_id"`
	Author     string  `form:"author"`
	Publisher  string  `form:"publisher"`
	PriceMin   *string `form:"price_min"`
	PriceMax   *string `form:"price_max"`
	InStock    bool    `form:"in_stock"`
	OutOfStock bool    `form:"out_of_stock"`
	Sort       string  `form:"sort"`
}

type BookResponse struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Publisher   string          `json:"publisher"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Rating      decimal.Decimal `json:"rating"`
	SoldCount   int             `json:"sold_count"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type BookListResponse struct {
	Books []BookResponse `json:"books"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// --- Cart ---

type AddCartItemRequest struct {
	BookID uuid.UUID `json:"book_id" binding:"required"`
}

type CartItemResponse struct {
	BookID    uuid.UUID       `json:"book_id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	ImageURL  string          `json:"image_url"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Stock     int             `json:"stock"`
}

type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	TotalPrice decimal.Decimal    `json:"total_price"`
}

// --- Order ---

type CheckoutRequest struct {
	RecipientName   string           `json:"recipient_name" binding:"required"`
	Phone           string           `json:"phone" binding:"required"`
	ShippingAddress string           `json:"shipping_address" binding:"required"`
	PaymentMethod   string           `json:"payment_method" binding:"required"`
	DiscountAmount  *decimal.Decimal `json:"discount_amount"`
}

type ListOrdersRequest struct {
	Page    int    `form:"page,default=1" binding:"min=1"`
	Limit   int    `form:"limit,default=20" binding:"min=1,max=100"`
	Query   string `form:"q"`
	Status  string `form:"status"`
	StaffID string `form:"staff_id"`
	From    string `form:"from" time_format:"2006-01-02"`
	To      string `form:"to" time_format:"2006-01-02"`
	Sort    string `form:"sort"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	BookID    uuid.UUID       `json:"book_id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	ImageURL  string          `json:"image_url"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	Code            string              `json:"code"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email"`
	CustomerPhone   string              `json:"customer_phone"`
	ShippingAddress string              `json:"shipping_address"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	ShippingFee     decimal.Decimal     `json:"shipping_fee"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	FinalAmount     decimal.Decimal     `json:"final_amount"`
	Status          string              `json:"status"`
	PaymentMethod   string              `json:"payment_method"`
	PaymentStatus   string              `json:"payment_status"`
	StaffName       string              `json:"staff_name,omitempty"`
	Items           []OrderItemResponse `json:"items,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}
