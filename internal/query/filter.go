package query

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pagebound/bookstore-api/internal/model"
)

// BookSort is the closed set of catalog orderings. Every member maps to one
// deterministic (field, direction) pair with id as the stable tiebreak.
type BookSort string

const (
	BookSortNewest      BookSort = "newest"
	BookSortPriceAsc    BookSort = "price_asc"
	BookSortPriceDesc   BookSort = "price_desc"
	BookSortTitle       BookSort = "title"
	BookSortBestSelling BookSort = "best_selling"
	BookSortRating      BookSort = "rating"
)

func ParseBookSort(raw string) (BookSort, error) {
	if raw == "" {
		return BookSortNewest, nil
	}
	switch BookSort(raw) {
	case BookSortNewest, BookSortPriceAsc, BookSortPriceDesc,
		BookSortTitle, BookSortBestSelling, BookSortRating:
		return BookSort(raw), nil
	}
	return "", fmt.Errorf("%w: book sort %q", model.ErrUnknownEnum, raw)
}

func (s BookSort) OrderBy() string {
	var key string
	switch s {
	case BookSortPriceAsc:
		key = "price ASC"
	case BookSortPriceDesc:
		key = "price DESC"
	case BookSortTitle:
		key = "title ASC"
	case BookSortBestSelling:
		key = "sold_count DESC"
	case BookSortRating:
		key = "rating DESC"
	default:
		key = "created_at DESC"
	}
	return " ORDER BY " + key + ", id ASC"
}

// BookFilter is a declarative, composable predicate over the catalog. Zero
// values contribute no clause.
type BookFilter struct {
	Query      string
	CategoryID *uuid.UUID
	Author     string
	Publisher  string
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal

	InStockOnly     bool
	OutOfStockOnly  bool
	IncludeInactive bool

	Sort   BookSort
	Limit  int
	Offset int
}

// Apply contributes the filter's clauses to b. Each active field adds one
// independent AND clause; the free-text query matches any of title, author
// or description.
func (f BookFilter) Apply(b *Builder) {
	if f.Query != "" {
		p := b.Bind("%" + f.Query + "%")
		b.Where("(title ILIKE " + p + " OR author ILIKE " + p + " OR description ILIKE " + p + ")")
	}
	if f.CategoryID != nil {
		b.Where("category_id = " + b.Bind(*f.CategoryID))
	}
	if f.Author != "" {
		b.Where("author ILIKE " + b.Bind("%"+f.Author+"%"))
	}
	if f.Publisher != "" {
		b.Where("publisher ILIKE " + b.Bind("%"+f.Publisher+"%"))
	}
	if f.PriceMin != nil {
		b.Where("price >= " + b.Bind(*f.PriceMin))
	}
	if f.PriceMax != nil {
		b.Where("price <= " + b.Bind(*f.PriceMax))
	}
	if f.InStockOnly {
		b.Where("stock > 0")
	}
	if f.OutOfStockOnly {
		b.Where("stock = 0")
	}
	if !f.IncludeInactive {
		b.Where("active")
	}
}

type OrderSort string

const (
	OrderSortNewest OrderSort = "newest"
	OrderSortOldest OrderSort = "oldest"
)

func ParseOrderSort(raw string) (OrderSort, error) {
	if raw == "" {
		return OrderSortNewest, nil
	}
	switch OrderSort(raw) {
	case OrderSortNewest, OrderSortOldest:
		return OrderSort(raw), nil
	}
	return "", fmt.Errorf("%w: order sort %q", model.ErrUnknownEnum, raw)
}

func (s OrderSort) OrderBy() string {
	if s == OrderSortOldest {
		return " ORDER BY created_at ASC, id ASC"
	}
	return " ORDER BY created_at DESC, id ASC"
}

// OrderFilter is the order-search equivalent of BookFilter: code, customer
// name and phone are substring-searchable; status, date range, customer and
// assigned staff narrow the result.
type OrderFilter struct {
	Query      string
	Status     *model.OrderStatus
	CustomerID *uuid.UUID
	StaffID    *uuid.UUID
	From       *time.Time
	To         *time.Time

	Sort   OrderSort
	Limit  int
	Offset int
}

func (f OrderFilter) Apply(b *Builder) {
	if f.Query != "" {
		p := b.Bind("%" + f.Query + "%")
		b.Where("(order_code ILIKE " + p + " OR customer_name ILIKE " + p + " OR customer_phone ILIKE " + p + ")")
	}
	if f.Status != nil {
		b.Where("status = " + b.Bind(string(*f.Status)))
	}
	if f.CustomerID != nil {
		b.Where("customer_id = " + b.Bind(*f.CustomerID))
	}
	if f.StaffID != nil {
		b.Where("staff_id = " + b.Bind(*f.StaffID))
	}
	if f.From != nil {
		b.Where("created_at >= " + b.Bind(*f.From))
	}
	if f.To != nil {
		b.Where("created_at < " + b.Bind(*f.To))
	}
}
