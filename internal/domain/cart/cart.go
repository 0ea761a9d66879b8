package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// MaxQuantity bounds the quantity of a single cart line.
const MaxQuantity = 10_000

var (
	// ErrNotFound is returned when a cart with the requested id does not exist.
	ErrNotFound = errors.New("Cart not found")
	// ErrQuantityTooLarge is returned when a line would exceed MaxQuantity.
	ErrQuantityTooLarge = errors.New("quantity must not exceed 10000")
)

// Item is a single product line in a cart.
type Item struct {
	ProductID string
	Quantity  int
}

// Cart is a set of items keyed by product id. No two items share a
// ProductID and every Quantity is positive.
type Cart struct {
	ID    string
	Items []Item
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	out := &Cart{ID: c.ID, Items: make([]Item, len(c.Items))}
	copy(out.Items, c.Items)
	return out
}

// Repository stores carts by id.
type Repository interface {
	// Upsert creates a cart or merges items into an existing one. An empty
	// cartID allocates a fresh id.
	Upsert(ctx context.Context, cartID string, items []Item) (*Cart, error)
	// Get returns ErrNotFound when the cart does not exist.
	Get(ctx context.Context, cartID string) (*Cart, error)
	// Take calls fn with the cart while holding the store's write lock and
	// removes the cart when fn returns nil. Upserts to the same cart wait
	// until Take returns. Errors from fn are returned unchanged and the cart
	// is kept. Take returns ErrNotFound when the cart does not exist.
	Take(ctx context.Context, cartID string, fn func(c *Cart) error) error
}

// Merge adds additions to base, summing quantities per product id.
// Additions with a non-positive quantity are skipped. Items keep the order in
// which their product id was first seen, base first. ErrQuantityTooLarge is
// returned when any line would exceed MaxQuantity.
func Merge(base, additions []Item) ([]Item, error) {
	order := make([]string, 0, len(base)+len(additions))
	quantities := make(map[string]int, len(base)+len(additions))

	add := func(it Item) error {
		q, seen := quantities[it.ProductID]
		if it.Quantity > MaxQuantity-q {
			return ErrQuantityTooLarge
		}
		if !seen {
			order = append(order, it.ProductID)
		}
		quantities[it.ProductID] = q + it.Quantity
		return nil
	}

	for _, it := range base {
		if err := add(it); err != nil {
			return nil, err
		}
	}
	for _, it := range additions {
		if it.Quantity <= 0 {
			continue
		}
		if err := add(it); err != nil {
			return nil, err
		}
	}

	out := make([]Item, 0, len(order))
	for _, id := range order {
		q := quantities[id]
		if q <= 0 {
			continue
		}
		out = append(out, Item{ProductID: id, Quantity: q})
	}
	return out, nil
}

// Normalize collapses duplicate product ids and drops non-positive quantities.
func Normalize(items []Item) ([]Item, error) {
	return Merge(nil, items)
}
