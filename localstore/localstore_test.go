package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"foodscan/cart"
	"foodscan/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "carts", "carts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSlotRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	data, err := s.Slot("t1").Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.Slot("t1").Save(ctx, []byte(`[{"id":"a","price":"1","quantity":2}]`)))
	require.NoError(t, s.Slot("t1").Save(ctx, []byte(`[{"id":"a","price":"1","quantity":3}]`)))

	data, err = s.Slot("t1").Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","price":"1","quantity":3}]`, string(data))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{cart.SlotKey("t1")}, keys)
}

func TestCartSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carts.db")
	s, err := Open(path)
	require.NoError(t, err)

	store := cart.Open(context.Background(), s.Slot("chat-7"), nil, nil)
	store.Add(models.MenuItem{ID: "soup", Name: "Soup", Price: decimal.RequireFromString("4.50")}, 2)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	again := cart.Open(context.Background(), s.Slot("chat-7"), nil, nil)
	assert.Equal(t, 2, again.Quantity("soup"))
	assert.True(t, decimal.RequireFromString("9").Equal(again.TotalPrice()))
}
