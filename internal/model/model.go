package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type Category struct {
	ID          uuid.UUID
	Name        string
	Description string
	SortOrder   int
	Active      bool
	// BookCount is computed by the repository, never stored.
	BookCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Book struct {
	ID          uuid.UUID
	Title       string
	Author      string
	Publisher   string
	CategoryID  uuid.UUID
	Description string
	ImageURL    string
	Price       decimal.Decimal
	Stock       int
	Rating      decimal.Decimal
	SoldCount   int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Status is derived from the active flag and the stock counter. Out of stock
// is never stored separately, so it cannot drift away from Stock.
func (b *Book) Status() BookStatus {
	if !b.Active {
		return BookStatusInactive
	}
	if b.Stock == 0 {
		return BookStatusOutOfStock
	}
	return BookStatusActive
}

type Order struct {
	ID         uuid.UUID
	Code       string
	CustomerID uuid.UUID

	// Contact snapshot captured at order time; later profile edits must not
	// rewrite order history.
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string

	TotalAmount    decimal.Decimal
	ShippingFee    decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal

	Status        OrderStatus
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus

	StaffID   uuid.NullUUID
	StaffName string

	Items []OrderItem

	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeliveredAt *time.Time
}

// ComputeFinal recomputes the monetary breakdown from the line items.
// FinalAmount is never patched in place; any change to items goes back
// through here.
func (o *Order) ComputeFinal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal)
	}
	o.TotalAmount = total
	o.FinalAmount = total.Add(o.ShippingFee).Sub(o.DiscountAmount)
}

type OrderItem struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	BookID  uuid.UUID

	// Snapshot of the book at order time so line items survive catalog edits
	// and deletion.
	Title    string
	Author   string
	ImageURL string

	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

type OrderMessage struct {
	OrderID    uuid.UUID `json:"order_id"`
	OrderCode  string    `json:"order_code"`
	CustomerID uuid.UUID `json:"customer_id"`
}
