package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/oolio-storefront/internal/domain/order"
)

func TestOrderStore(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	o := &order.Order{
		ID:    "o1",
		Items: []order.LineItem{{ProductID: "p1", Quantity: 1, UnitPriceCents: 1999}},
	}
	require.NoError(t, s.Create(ctx, o))
	require.NoError(t, s.Create(ctx, &order.Order{ID: "o2"}))

	// Mutating the caller's value does not leak into the store.
	o.Items[0].Quantity = 7

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "o1", list[0].ID)
	assert.Equal(t, "o2", list[1].ID)
	assert.Equal(t, 1, list[0].Items[0].Quantity)

	list[0].Items[0].Quantity = 9
	again, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, again[0].Items[0].Quantity)
}
