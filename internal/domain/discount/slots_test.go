package discount_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/oolio-storefront/internal/domain/discount"
	"github.com/xenking/oolio-storefront/internal/domain/order"
	"github.com/xenking/oolio-storefront/internal/storage/memory"
)

type slotFixture struct {
	orders *memory.OrderStore
	codes  *memory.DiscountStore
	svc    *discount.Service
	placed int
}

func newSlotFixture(t *testing.T, n int) *slotFixture {
	t.Helper()
	f := &slotFixture{
		orders: memory.NewOrderStore(),
		codes:  memory.NewDiscountStore(),
	}
	svc, err := discount.NewService(f.codes, f.orders, discount.Config{N: n, XPercent: 10})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *slotFixture) placeOrdersUpTo(t *testing.T, total int) {
	t.Helper()
	for f.placed < total {
		f.placed++
		require.NoError(t, f.orders.Create(context.Background(), &order.Order{
			ID:            fmt.Sprintf("o%d", f.placed),
			Items:         []order.LineItem{{ProductID: "p4", Quantity: 1, UnitPriceCents: 999}},
			SubtotalCents: 999,
			TotalCents:    999,
			CreatedAt:     time.Now().UTC(),
		}))
	}
}

func TestServiceGenerate_SlotSequence(t *testing.T) {
	f := newSlotFixture(t, 5)

	steps := []struct {
		orders   int
		eligible bool
	}{
		{orders: 0, eligible: false},
		{orders: 4, eligible: false},
		{orders: 5, eligible: true},
		{orders: 5, eligible: false},
		{orders: 6, eligible: false},
		{orders: 9, eligible: false},
		{orders: 10, eligible: true},
		{orders: 10, eligible: false},
		{orders: 14, eligible: false},
		{orders: 15, eligible: true},
	}

	issued := 0
	for _, step := range steps {
		f.placeOrdersUpTo(t, step.orders)

		code, err := f.svc.Generate(context.Background(), nil)
		if !step.eligible {
			require.ErrorIs(t, err, discount.ErrNotEligible, "after %d orders with %d codes", step.orders, issued)
			continue
		}
		require.NoError(t, err, "after %d orders with %d codes", step.orders, issued)
		issued++
		assert.Equal(t, 10, code.Percent)
	}

	codes, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, codes, 3)
}

func TestServiceGenerate_SkippedSlotsAccumulate(t *testing.T) {
	f := newSlotFixture(t, 5)
	f.placeOrdersUpTo(t, 12)

	for range 2 {
		_, err := f.svc.Generate(context.Background(), nil)
		require.NoError(t, err)
	}
	_, err := f.svc.Generate(context.Background(), nil)
	require.ErrorIs(t, err, discount.ErrNotEligible)
}

func TestServiceGenerate_ConcurrentSingleSlot(t *testing.T) {
	f := newSlotFixture(t, 5)
	f.placeOrdersUpTo(t, 10)

	// One slot used already; one remains at ten orders.
	_, err := f.svc.Generate(context.Background(), nil)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Generate(context.Background(), nil); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	codes, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, codes, 2)
}
