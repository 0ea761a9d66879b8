package order

import (
	"context"
	"time"
)

// LineItem is a product, quantity and the unit price captured at checkout.
type LineItem struct {
	ProductID      string
	Quantity       int
	UnitPriceCents int64
}

// AppliedDiscount describes a validated code applied to an order. A nil
// *AppliedDiscount means no code was applied.
type AppliedDiscount struct {
	Code        string
	Percent     int
	AmountCents int64
}

// Computation is the priced breakdown of a cart, shared by preview and checkout.
type Computation struct {
	Items               []LineItem
	SubtotalCents       int64
	Discount            *AppliedDiscount
	DiscountAmountCents int64
	TotalCents          int64
}

// Order is a completed checkout. Orders are immutable once recorded.
//
// TotalCents == SubtotalCents - DiscountAmountCents always holds, and
// DiscountAmountCents is zero when Discount is nil.
type Order struct {
	ID                  string
	Items               []LineItem
	SubtotalCents       int64
	Discount            *AppliedDiscount
	DiscountAmountCents int64
	TotalCents          int64
	CreatedAt           time.Time
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() Order {
	out := *o
	out.Items = make([]LineItem, len(o.Items))
	copy(out.Items, o.Items)
	if o.Discount != nil {
		d := *o.Discount
		out.Discount = &d
	}
	return out
}

// Repository is an append-only order log.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	List(ctx context.Context) ([]Order, error)
	Count(ctx context.Context) (int, error)
}
