package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/xenking/oolio-storefront/internal/domain/cart"
)

var _ cart.Repository = (*CartStore)(nil)

// CartStore implements cart.Repository in memory.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string]*cart.Cart
	newID func() string
}

// NewCartStore returns an empty CartStore.
func NewCartStore() *CartStore {
	return &CartStore{
		carts: make(map[string]*cart.Cart),
		newID: func() string { return uuid.New().String() },
	}
}

// Upsert creates a new cart when cartID is empty or unknown, otherwise merges
// items into the existing cart.
func (s *CartStore) Upsert(_ context.Context, cartID string, items []cart.Item) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cartID == "" {
		cartID = s.newID()
	}

	var base []cart.Item
	if existing, ok := s.carts[cartID]; ok {
		base = existing.Items
	}

	merged, err := cart.Merge(base, items)
	if err != nil {
		return nil, err
	}

	c := &cart.Cart{ID: cartID, Items: merged}
	s.carts[cartID] = c
	return c.Clone(), nil
}

// Get returns cart.ErrNotFound when the cart does not exist.
func (s *CartStore) Get(_ context.Context, cartID string) (*cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[cartID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return c.Clone(), nil
}

// Take runs fn on a copy of the cart under the write lock and deletes the
// cart when fn succeeds.
func (s *CartStore) Take(_ context.Context, cartID string, fn func(c *cart.Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[cartID]
	if !ok {
		return cart.ErrNotFound
	}
	if err := fn(c.Clone()); err != nil {
		return err
	}
	delete(s.carts, cartID)
	return nil
}

// Len returns the number of open carts.
func (s *CartStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts)
}
