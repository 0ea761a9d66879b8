package stats

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/oolio-storefront/internal/domain/discount"
	"github.com/xenking/oolio-storefront/internal/domain/order"
)

type stubOrders struct {
	orders []order.Order
	err    error
}

func (s stubOrders) List(context.Context) ([]order.Order, error) { return s.orders, s.err }

type stubCodes struct {
	codes []discount.Code
	err   error
}

func (s stubCodes) List(context.Context) ([]discount.Code, error) { return s.codes, s.err }

func TestCompute(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		got := Compute(nil, nil)
		assert.Zero(t, got.OrderCount)
		assert.Zero(t, got.ItemsPurchased)
		assert.Zero(t, got.RevenueCents)
		assert.Zero(t, got.DiscountCodesIssued)
		assert.Zero(t, got.DiscountCodesUsed)
		assert.Zero(t, got.TotalDiscountsGivenCents)
	})

	t.Run("aggregates", func(t *testing.T) {
		orders := []order.Order{
			{
				ID: "o1",
				Items: []order.LineItem{
					{ProductID: "p1", Quantity: 2, UnitPriceCents: 1999},
					{ProductID: "p2", Quantity: 1, UnitPriceCents: 4999},
				},
				SubtotalCents: 8997,
				TotalCents:    8997,
			},
			{
				ID:                  "o2",
				Items:               []order.LineItem{{ProductID: "p1", Quantity: 2, UnitPriceCents: 1999}},
				SubtotalCents:       3998,
				Discount:            &order.AppliedDiscount{Code: "AAAAAAAA", Percent: 10, AmountCents: 399},
				DiscountAmountCents: 399,
				TotalCents:          3599,
			},
		}
		codes := []discount.Code{
			{Code: "AAAAAAAA", Percent: 10, Used: true, UsedByOrderID: "o2"},
			{Code: "BBBBBBBB", Percent: 10},
		}

		got := Compute(orders, codes)
		assert.Equal(t, 2, got.OrderCount)
		assert.Equal(t, 5, got.ItemsPurchased)
		assert.Equal(t, int64(8997+3599), got.RevenueCents)
		assert.Equal(t, 2, got.DiscountCodesIssued)
		assert.Equal(t, 1, got.DiscountCodesUsed)
		assert.Equal(t, int64(399), got.TotalDiscountsGivenCents)
		assert.Equal(t, orders, got.Orders)
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		svc := NewService(
			stubOrders{orders: []order.Order{{ID: "o1", TotalCents: 100}}},
			stubCodes{codes: []discount.Code{{Code: "AAAAAAAA"}}},
		)
		got, err := svc.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, got.OrderCount)
		assert.Equal(t, int64(100), got.RevenueCents)
		assert.Equal(t, 1, got.DiscountCodesIssued)
	})

	t.Run("order store error", func(t *testing.T) {
		svc := NewService(stubOrders{err: errors.New("boom")}, stubCodes{})
		_, err := svc.Get(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list orders")
	})

	t.Run("code store error", func(t *testing.T) {
		svc := NewService(stubOrders{}, stubCodes{err: errors.New("boom")})
		_, err := svc.Get(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list discount codes")
	})
}
