// Package stats derives admin summary metrics from recorded orders and codes.
package stats

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/oolio-storefront/internal/domain/discount"
	"github.com/xenking/oolio-storefront/internal/domain/order"
)

// Stats summarises store activity.
type Stats struct {
	OrderCount               int
	ItemsPurchased           int
	RevenueCents             int64
	DiscountCodesIssued      int
	DiscountCodesUsed        int
	TotalDiscountsGivenCents int64
	Orders                   []order.Order
}

// Compute folds over orders and codes.
func Compute(orders []order.Order, codes []discount.Code) Stats {
	s := Stats{
		OrderCount:          len(orders),
		DiscountCodesIssued: len(codes),
		Orders:              orders,
	}
	for _, o := range orders {
		s.RevenueCents += o.TotalCents
		s.TotalDiscountsGivenCents += o.DiscountAmountCents
		for _, it := range o.Items {
			s.ItemsPurchased += it.Quantity
		}
	}
	for _, c := range codes {
		if c.Used {
			s.DiscountCodesUsed++
		}
	}
	return s
}

// OrderLister lists recorded orders.
type OrderLister interface {
	List(ctx context.Context) ([]order.Order, error)
}

// CodeLister lists issued discount codes.
type CodeLister interface {
	List(ctx context.Context) ([]discount.Code, error)
}

// Service reads the order and code stores.
type Service struct {
	orders OrderLister
	codes  CodeLister
}

// NewService creates a stats Service.
func NewService(orders OrderLister, codes CodeLister) *Service {
	return &Service{orders: orders, codes: codes}
}

// Get computes stats over the current store contents.
func (s *Service) Get(ctx context.Context) (*Stats, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	codes, err := s.codes.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list discount codes")
	}
	st := Compute(orders, codes)
	return &st, nil
}
