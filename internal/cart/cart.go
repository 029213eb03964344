// Package cart holds pre-checkout selections in memory. Entries live only
// for the active session: they are created on add, and destroyed on
// checkout success, removal or clear. Nothing here touches storage.
package cart

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pagebound/bookstore-api/internal/model"
)

var (
	ErrOutOfStock        = errors.New("book is out of stock")
	ErrStockLimitReached = errors.New("stock limit reached")
	ErrNotInCart         = errors.New("book is not in the cart")
)

// Entry stages one book with its quantity. The book value is a snapshot of
// the catalog row at the time of the last Add; checkout re-validates
// against live stock regardless.
type Entry struct {
	Book     model.Book
	Quantity int
}

func (e Entry) LineTotal() decimal.Decimal {
	return e.Book.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Listener is notified synchronously after every mutation.
type Listener func()

// Cart is the per-session staging area. Mutations are serialized with a
// mutex because the invariant check (quantity vs. stock) is not atomic with
// the mutation itself.
type Cart struct {
	mu        sync.Mutex
	entries   map[uuid.UUID]*Entry
	listeners []Listener
}

func New() *Cart {
	return &Cart{entries: make(map[uuid.UUID]*Entry)}
}

func (c *Cart) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// notify must be called with the mutex held.
func (c *Cart) notify() {
	for _, l := range c.listeners {
		l()
	}
}

// Add stages one more copy of the book. A book already in the cart has its
// quantity incremented by one, capped at the book's stock; at the cap the
// cart is left unchanged and ErrStockLimitReached is returned. The stored
// stock snapshot is refreshed from the given book on every call, and a line
// whose live stock shrank below the staged quantity is clamped down, or
// removed entirely when stock hit zero.
func (c *Cart) Add(book model.Book) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[book.ID]
	if !ok {
		if book.Stock == 0 {
			return ErrOutOfStock
		}
		c.entries[book.ID] = &Entry{Book: book, Quantity: 1}
		c.notify()
		return nil
	}
	if book.Stock == 0 {
		delete(c.entries, book.ID)
		c.notify()
		return ErrOutOfStock
	}
	entry.Book = book
	if entry.Quantity >= book.Stock {
		if entry.Quantity > book.Stock {
			// Stock shrank since the entry was staged; clamp down rather
			// than keep an unsatisfiable quantity.
			entry.Quantity = book.Stock
			c.notify()
		}
		return ErrStockLimitReached
	}
	entry.Quantity++
	c.notify()
	return nil
}

// Increase bumps the quantity by one, bounded by the staged stock snapshot.
func (c *Cart) Increase(bookID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[bookID]
	if !ok {
		return ErrNotInCart
	}
	if entry.Quantity >= entry.Book.Stock {
		return ErrStockLimitReached
	}
	entry.Quantity++
	c.notify()
	return nil
}

// Decrease lowers the quantity by one; dropping below one removes the entry
// instead of leaving a zero-quantity line.
func (c *Cart) Decrease(bookID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[bookID]
	if !ok {
		return ErrNotInCart
	}
	if entry.Quantity <= 1 {
		delete(c.entries, bookID)
	} else {
		entry.Quantity--
	}
	c.notify()
	return nil
}

func (c *Cart) Remove(bookID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[bookID]; !ok {
		return
	}
	delete(c.entries, bookID)
	c.notify()
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return
	}
	c.entries = make(map[uuid.UUID]*Entry)
	c.notify()
}

func (c *Cart) Quantity(bookID uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[bookID]; ok {
		return entry.Quantity
	}
	return 0
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries returns a snapshot of the staged lines, ordered by title with id
// as tiebreak so the result is deterministic.
func (c *Cart) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Book.Title != out[j].Book.Title {
			return out[i].Book.Title < out[j].Book.Title
		}
		return out[i].Book.ID.String() < out[j].Book.ID.String()
	})
	return out
}

// TotalPrice is recomputed from the staged prices on every call, never
// cached.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, entry := range c.entries {
		total = total.Add(entry.LineTotal())
	}
	return total
}
