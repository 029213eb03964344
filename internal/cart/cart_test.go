package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagebound/bookstore-api/internal/model"
)

func testBook(stock int, price string) model.Book {
	return model.Book{
		ID:     uuid.New(),
		Title:  "The Go Programming Language",
		Author: "Donovan",
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Active: true,
	}
}

func TestCart_AddNewEntry(t *testing.T) {
	c := New()
	book := testBook(5, "39.99")

	require.NoError(t, c.Add(book))
	assert.Equal(t, 1, c.Quantity(book.ID))
	assert.Equal(t, 1, c.Len())
}

func TestCart_AddOutOfStock(t *testing.T) {
	c := New()
	book := testBook(0, "39.99")

	assert.ErrorIs(t, c.Add(book), ErrOutOfStock)
	assert.Zero(t, c.Len())
}

func TestCart_AddIncrementsUpToStock(t *testing.T) {
	c := New()
	book := testBook(2, "10.00")

	require.NoError(t, c.Add(book))
	require.NoError(t, c.Add(book))
	assert.ErrorIs(t, c.Add(book), ErrStockLimitReached)
	assert.Equal(t, 2, c.Quantity(book.ID))
}

func TestCart_AddRefreshesShrunkenStock(t *testing.T) {
	c := New()
	book := testBook(5, "10.00")
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Add(book))
	}

	book.Stock = 3
	assert.ErrorIs(t, c.Add(book), ErrStockLimitReached)
	assert.Equal(t, 3, c.Quantity(book.ID))
}

func TestCart_AddRemovesStagedEntryWhenStockExhausted(t *testing.T) {
	c := New()
	book := testBook(2, "10.00")
	require.NoError(t, c.Add(book))
	require.NoError(t, c.Add(book))

	// Live stock sold out elsewhere; the stale line is dropped, not kept at
	// its old quantity.
	book.Stock = 0
	assert.ErrorIs(t, c.Add(book), ErrOutOfStock)
	assert.Zero(t, c.Quantity(book.ID))
	assert.Zero(t, c.Len())
}

func TestCart_IncreaseBoundedByStock(t *testing.T) {
	c := New()
	book := testBook(5, "10.00")
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Add(book))
	}

	assert.ErrorIs(t, c.Increase(book.ID), ErrStockLimitReached)
	assert.Equal(t, 5, c.Quantity(book.ID))
}

func TestCart_DecreaseBelowOneRemovesEntry(t *testing.T) {
	c := New()
	book := testBook(5, "10.00")
	require.NoError(t, c.Add(book))
	require.NoError(t, c.Add(book))

	require.NoError(t, c.Decrease(book.ID))
	assert.Equal(t, 1, c.Quantity(book.ID))

	require.NoError(t, c.Decrease(book.ID))
	assert.Zero(t, c.Quantity(book.ID))
	assert.Zero(t, c.Len())
}

func TestCart_IncreaseUnknownBook(t *testing.T) {
	c := New()
	assert.ErrorIs(t, c.Increase(uuid.New()), ErrNotInCart)
	assert.ErrorIs(t, c.Decrease(uuid.New()), ErrNotInCart)
}

func TestCart_TotalPriceRecomputed(t *testing.T) {
	c := New()
	a := testBook(10, "12.50")
	b := testBook(10, "7.25")
	b.Title = "Another Book"

	require.NoError(t, c.Add(a))
	require.NoError(t, c.Add(a))
	require.NoError(t, c.Add(b))

	assert.True(t, c.TotalPrice().Equal(decimal.RequireFromString("32.25")))

	require.NoError(t, c.Decrease(a.ID))
	assert.True(t, c.TotalPrice().Equal(decimal.RequireFromString("19.75")))
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := New()
	a := testBook(10, "5.00")
	b := testBook(10, "6.00")

	require.NoError(t, c.Add(a))
	require.NoError(t, c.Add(b))

	c.Remove(a.ID)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
	assert.True(t, c.TotalPrice().IsZero())
}

func TestCart_ListenersNotifiedOnEveryMutation(t *testing.T) {
	c := New()
	book := testBook(3, "5.00")

	var calls int
	c.Subscribe(func() { calls++ })

	require.NoError(t, c.Add(book))
	require.NoError(t, c.Increase(book.ID))
	require.NoError(t, c.Decrease(book.ID))
	c.Remove(book.ID)
	// Clearing an already-empty cart does not notify.
	c.Clear()

	assert.Equal(t, 4, calls)
}

func TestCart_EntriesDeterministicOrder(t *testing.T) {
	c := New()
	a := testBook(5, "1.00")
	a.Title = "Zebra"
	b := testBook(5, "1.00")
	b.Title = "Aardvark"

	require.NoError(t, c.Add(a))
	require.NoError(t, c.Add(b))

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Aardvark", entries[0].Book.Title)
	assert.Equal(t, "Zebra", entries[1].Book.Title)
}

func TestRegistry_OneCartPerUser(t *testing.T) {
	reg := NewRegistry()
	userA := uuid.New()
	userB := uuid.New()

	require.NoError(t, reg.For(userA).Add(testBook(5, "2.00")))

	assert.Equal(t, 1, reg.For(userA).Len())
	assert.Zero(t, reg.For(userB).Len())

	reg.Drop(userA)
	assert.Zero(t, reg.For(userA).Len())
}
