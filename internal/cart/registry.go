package cart

import (
	"sync"

	"github.com/google/uuid"
)

// Registry owns one cart per session. It is an explicit dependency injected
// into handlers rather than package-level state, so tests can run isolated
// registries side by side.
type Registry struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*Cart
}

func NewRegistry() *Registry {
	return &Registry{carts: make(map[uuid.UUID]*Cart)}
}

// For returns the cart for the given user, creating it on first use.
func (r *Registry) For(userID uuid.UUID) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[userID]
	if !ok {
		c = New()
		r.carts[userID] = c
	}
	return c
}

// Drop discards a user's cart entirely, e.g. on logout.
func (r *Registry) Drop(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
}
