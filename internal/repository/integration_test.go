package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagebound/bookstore-api/internal/model"
	"github.com/pagebound/bookstore-api/internal/query"
)

func seedCategory(t *testing.T) *model.Category {
	t.Helper()
	repo := NewCategoryRepository(testPool)
	c := &model.Category{Name: "Fiction", Description: "Novels", SortOrder: 1, Active: true}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func seedBook(t *testing.T, categoryID uuid.UUID, title string, price string, stock int) *model.Book {
	t.Helper()
	repo := NewBookRepository(testPool)
	b := &model.Book{
		Title: title, Author: "Author", Publisher: "Publisher", CategoryID: categoryID,
		Description: "Desc", Price: decimal.RequireFromString(price), Stock: stock,
		Rating: decimal.Zero, Active: true,
	}
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func draftOrder(customer uuid.UUID, books ...*model.Book) *model.Order {
	order := &model.Order{
		CustomerID: customer, CustomerName: "Jane Buyer", CustomerEmail: "jane@example.com",
		CustomerPhone: "555-0100", ShippingAddress: "1 Main St",
		ShippingFee: decimal.RequireFromString("5.00"), DiscountAmount: decimal.Zero,
		Status: model.OrderStatusPending, PaymentMethod: model.PaymentMethodCOD,
		PaymentStatus: model.PaymentStatusUnpaid,
	}
	for _, b := range books {
		order.Items = append(order.Items, model.OrderItem{
			BookID: b.ID, Title: b.Title, Author: b.Author, ImageURL: b.ImageURL,
			UnitPrice: b.Price, Quantity: 1, LineTotal: b.Price,
		})
	}
	order.ComputeFinal()
	return order
}

func seedCustomer(t *testing.T) *model.User {
	t.Helper()
	repo := NewUserRepository(testPool)
	u := &model.User{
		Email: uuid.NewString() + "@example.com", Password: "hash",
		FirstName: "Jane", LastName: "Buyer", Role: model.RoleCustomer,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestBookRepo_CRUDAndSearch(t *testing.T) {
	requireDB(t)
	cleanupTable(t, "order_items", "orders", "books", "categories", "users")

	ctx := context.Background()
	cat := seedCategory(t)
	repo := NewBookRepository(testPool)

	seedBook(t, cat.ID, "The Left Hand of Darkness", "12.00", 4)
	seedBook(t, cat.ID, "The Dispossessed", "9.50", 0)
	inactive := seedBook(t, cat.ID, "Hidden Title", "3.00", 2)
	inactive.Active = false
	require.NoError(t, repo.Update(ctx, inactive))

	books, total, err := repo.Search(ctx, query.BookFilter{Query: "the", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, books, 2)

	books, total, err = repo.Search(ctx, query.BookFilter{InStockOnly: true, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, books, 1)
	assert.Equal(t, "The Left Hand of Darkness", books[0].Title)

	min := decimal.RequireFromString("10.00")
	_, total, err = repo.Search(ctx, query.BookFilter{PriceMin: &min, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestBookRepo_SearchDeterministicTieBreak(t *testing.T) {
	requireDB(t)
	cleanupTable(t, "order_items", "orders", "books", "categories", "users")

	ctx := context.Background()
	cat := seedCategory(t)
	for i := 0; i < 3; i++ {
		seedBook(t, cat.ID, "Same Title", "10.00", 1)
	}

	repo := NewBookRepository(testPool)
	first, _, err := repo.Search(ctx, query.BookFilter{Sort: query.BookSortTitle, Limit: 10})
	require.NoError(t, err)
	second, _, err := repo.Search(ctx, query.BookFilter{Sort: query.BookSortTitle, Limit: 10})
	require.NoError(t, err)

	require.Len(t, first, 3)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestBookRepo_StockInvariant(t *testing.T) {
	requireDB(t)
	cleanupTable(t, "order_items", "orders", "books", "categories", "users")

	ctx := context.Background()
	cat := seedCategory(t)
	book := seedBook(t, cat.ID, "Stocked", "10.00", 5)
	repo := NewBookRepository(testPool)

	tx, err := testPool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.DebitStock(ctx, tx, book.ID, 3))
	require.NoError(t, tx.Commit(ctx))

	found, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Stock)
	assert.Equal(t, 3, found.SoldCount)

	// A debit that would go negative is rejected and leaves stock unchanged.
	tx, err = testPool.Begin(ctx)
	require.NoError(t, err)
	err = repo.DebitStock(ctx, tx, book.ID, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	require.NoError(t, tx.Rollback(ctx))

	found, err = repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Stock)

	assert.ErrorIs(t, repo.SetStock(ctx, book.ID, -1), ErrInvalidArgument)
	require.NoError(t, repo.SetStock(ctx, book.ID, 10))
	found, _ = repo.GetByID(ctx, book.ID)
	assert.Equal(t, 10, found.Stock)
}

func TestBookRepo_UpdateLeavesStockAlone(t *testing.T) {
	requireDB(t)
	cleanupTable(t, "order_items", "orders", "books", "categories", "users")

	ctx := context.Background()
	cat := seedCategory(t)
	book := seedBook(t, cat.ID, "Edited", "10.00", 5)
	repo := NewBookRepository(testPool)

	// Read-modify-write edit with a checkout debit committed in between.
	stale, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)

	tx, err := testPool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.DebitStock(ctx, tx, book.ID, 1))
	require.NoError(t, tx.Commit(ctx))

	stale.Title = "Edited (Revised)"
	require.NoError(t, repo.Update(ctx, stale))

	// The edit landed, the debit survived, and the model was refreshed to
	// the committed counters.
	assert.Equal(t, 4, stale.Stock)
	assert.Equal(t, 1, stale.SoldCount)

	found, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited (Revised)", found.Title)
	assert.Equal(t, 4, found.Stock)
	assert.Equal(t, 1, found.SoldCount)
}

func TestOrderRepo_CreateDebitsStockAtomically(t *testing.T) {
	requireDB(t)
	cleanupTable(t, "order_items", "orders", "books", "categories", "users")

	ctx := context.Background()
	cat := seedCategory(t)
	customer := seedCustomer(t)
	book := seedBook(t, cat.ID, "Checkout Me", "20.00", 1)

	bookRepo := NewBookRepository(testPool)
	orderRepo := NewOrderRepository(testPool, bookRepo)

	order := draftOrder(customer.ID, book)
	require.NoError(t, orderRepo.Create(ctx, order))
	assert.NotEmpty(t, order.Code)

	found, err := bookRepo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.Stock)
	assert.Equal(t, 1, found.SoldCount)

	// Monetary identity holds on the persisted row.
	stored, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.FinalAmount.Equal(
		stored.TotalAmount.Add(stored.ShippingFee).Sub(stored.DiscountAmount)))

	// Second checkout for the same book fails and leaves nothing behind.
	err = orderRepo.Create(ctx, draftOrder(customer.ID, book))
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, total, err := orderRepo.List(ctx, query.OrderFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestOrderRepo_FailedCreateLeavesNoPartialState(t *testing.T) {
	requireDB(t)
	cleanupTable(t, "order_items", "orders", "books", "categories", "users")

	ctx := context.Background()
	cat := seedCategory(t)
	customer := seedCustomer(t)
	plenty := seedBook(t, cat.ID, "Plenty", "10.00", 10)
	scarce := seedBook(t, cat.ID, "Scarce", "10.00", 0)

	bookRepo := NewBookRepository(testPool)
	orderRepo := NewOrderRepository(testPool, bookRepo)

	err := orderRepo.Create(ctx, draftOrder(customer.ID, plenty, scarce))
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// No header, no items, no debit from the failed attempt.
	var orders, items int
	require.NoError(t, testPool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&orders))
	require.NoError(t, testPool.QueryRow(ctx, `SELECT COUNT(*) FROM order_items`).Scan(&items))
	assert.Zero(t, orders)
	assert.Zero(t, items)

	found, err := bookRepo.GetByID(ctx, plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, found.Stock)
	assert.Zero(t, found.SoldCount)
}

func TestOrderRepo_CodesAreDailySequential(t *testing.T) {
	requireDB(t)
	cleanupTable(t, "order_items", "orders", "books", "categories", "users")

	ctx := context.Background()
	cat := seedCategory(t)
	customer := seedCustomer(t)
	book := seedBook(t, cat.ID, "Sequenced", "10.00", 100)

	bookRepo := NewBookRepository(testPool)
	orderRepo := NewOrderRepository(testPool, bookRepo)

	seen := make(map[string]bool)
	var codes []string
	for i := 0; i < 3; i++ {
		order := draftOrder(customer.ID, book)
		require.NoError(t, orderRepo.Create(ctx, order))
		assert.Regexp(t, `^ORD\d{8}\d{3}$`, order.Code)
		assert.False(t, seen[order.Code], "duplicate code %s", order.Code)
		seen[order.Code] = true
		codes = append(codes, order.Code)
	}
	for i := 1; i < len(codes); i++ {
		assert.Greater(t, codes[i], codes[i-1])
	}
}

func TestOrderRepo_StateMachine(t *testing.T) {
	requireDB(t)
	cleanupTable(t, "order_items", "orders", "books", "categories", "users")

	ctx := context.Background()
	cat := seedCategory(t)
	customer := seedCustomer(t)
	book := seedBook(t, cat.ID, "Shipped Book", "10.00", 5)

	bookRepo := NewBookRepository(testPool)
	orderRepo := NewOrderRepository(testPool, bookRepo)
	staff := &model.User{ID: uuid.New(), FirstName: "Sam", LastName: "Staff", Role: model.RoleStaff}

	order := draftOrder(customer.ID, book)
	require.NoError(t, orderRepo.Create(ctx, order))

	// Pending -> Shipping skips Processing and is rejected.
	err := orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusShipping, staff)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusProcessing, staff))
	require.NoError(t, orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusShipping, staff))
	require.NoError(t, orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusDelivered, staff))

	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, found.Status)
	assert.NotNil(t, found.DeliveredAt)
	assert.Equal(t, "Sam Staff", found.StaffName)

	// Delivered is terminal.
	err = orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled, staff)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderRepo_CancelRestoresStock(t *testing.T) {
	requireDB(t)
	cleanupTable(t, "order_items", "orders", "books", "categories", "users")

	ctx := context.Background()
	cat := seedCategory(t)
	customer := seedCustomer(t)
	book := seedBook(t, cat.ID, "Restocked", "10.00", 2)

	bookRepo := NewBookRepository(testPool)
	orderRepo := NewOrderRepository(testPool, bookRepo)

	order := draftOrder(customer.ID, book)
	require.NoError(t, orderRepo.Create(ctx, order))

	found, _ := bookRepo.GetByID(ctx, book.ID)
	require.Equal(t, 1, found.Stock)

	require.NoError(t, orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled, nil))

	found, err := bookRepo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Stock)
	assert.Zero(t, found.SoldCount)
}

func TestOrderRepo_ListFilters(t *testing.T) {
	requireDB(t)
	cleanupTable(t, "order_items", "orders", "books", "categories", "users")

	ctx := context.Background()
	cat := seedCategory(t)
	customer := seedCustomer(t)
	book := seedBook(t, cat.ID, "Filtered", "10.00", 100)

	bookRepo := NewBookRepository(testPool)
	orderRepo := NewOrderRepository(testPool, bookRepo)

	first := draftOrder(customer.ID, book)
	require.NoError(t, orderRepo.Create(ctx, first))
	second := draftOrder(customer.ID, book)
	require.NoError(t, orderRepo.Create(ctx, second))
	require.NoError(t, orderRepo.UpdateStatus(ctx, second.ID, model.OrderStatusCancelled, nil))

	pending := model.OrderStatusPending
	orders, total, err := orderRepo.List(ctx, query.OrderFilter{Status: &pending, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, first.ID, orders[0].ID)

	orders, total, err = orderRepo.List(ctx, query.OrderFilter{Query: second.Code, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, second.ID, orders[0].ID)

	byCode, err := orderRepo.GetByCode(ctx, first.Code)
	require.NoError(t, err)
	assert.Equal(t, first.ID, byCode.ID)
}
