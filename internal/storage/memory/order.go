package memory

import (
	"context"
	"sync"

	"github.com/xenking/oolio-storefront/internal/domain/order"
)

var _ order.Repository = (*OrderStore)(nil)

// OrderStore implements order.Repository as an append-only in-memory log.
type OrderStore struct {
	mu     sync.RWMutex
	orders []order.Order
}

// NewOrderStore returns an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{}
}

// Create appends a copy of o.
func (s *OrderStore) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = append(s.orders, o.Clone())
	return nil
}

// List returns copies of all orders in creation order.
func (s *OrderStore) List(_ context.Context) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]order.Order, len(s.orders))
	for i := range s.orders {
		out[i] = s.orders[i].Clone()
	}
	return out, nil
}

// Count returns the number of recorded orders.
func (s *OrderStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders), nil
}
