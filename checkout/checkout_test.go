package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"foodscan/cart"
	"foodscan/models"
	"foodscan/validation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	got []models.CreateOrderRequest
	err error
}

func (f *fakeCreator) CreateOrder(_ context.Context, req models.CreateOrderRequest) (models.Order, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return models.Order{}, f.err
	}
	return models.Order{ID: "order-1", Status: req.Status, TotalAmount: req.TotalAmount}, nil
}

var ana = models.CustomerInfo{Name: "Ana", Phone: "5550100", TableNumber: "4"}

func newStore(t *testing.T) *cart.Store {
	t.Helper()
	return cart.Open(context.Background(), cart.NewMemorySlots().Slot("t"), nil, nil)
}

func menuItem(id, price string) models.MenuItem {
	return models.MenuItem{ID: id, RestaurantID: "r1", Name: id, Price: decimal.RequireFromString(price)}
}

func TestPlaceSubmitsAndClears(t *testing.T) {
	fc := &fakeCreator{}
	p := NewPlacer(fc, nil, nil)
	s := newStore(t)
	s.Add(menuItem("a", "10"), 2)
	s.Add(menuItem("b", "2.50"), 1)

	order, err := p.Place(context.Background(), s, ana, FromChat(42))
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
	assert.True(t, s.Empty())

	require.Len(t, fc.got, 1)
	req := fc.got[0]
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, "r1", req.RestaurantID)
	assert.Equal(t, "4", req.TableNumber)
	assert.Equal(t, int64(42), req.ChatID)
	require.Len(t, req.Items, 2)
	assert.Equal(t, "a", req.Items[0].MenuItemID)
	assert.Equal(t, 2, req.Items[0].Quantity)
	// 22.50 + 10% tax
	assert.True(t, decimal.RequireFromString("24.75").Equal(req.TotalAmount), "total %s", req.TotalAmount)
}

func TestPlaceEmptyCart(t *testing.T) {
	fc := &fakeCreator{}
	_, err := NewPlacer(fc, nil, nil).Place(context.Background(), newStore(t), ana)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, fc.got)
}

func TestPlaceInvalidCustomerKeepsCart(t *testing.T) {
	fc := &fakeCreator{}
	s := newStore(t)
	s.Add(menuItem("a", "1"), 1)
	_, err := NewPlacer(fc, nil, nil).Place(context.Background(), s, models.CustomerInfo{Name: "Ana"})
	assert.ErrorIs(t, err, validation.ErrInvalid)
	assert.Empty(t, fc.got)
	assert.Equal(t, 1, s.TotalItems())
}

func TestPlaceFailureKeepsCart(t *testing.T) {
	boom := errors.New("backend down")
	fc := &fakeCreator{err: boom}
	s := newStore(t)
	s.Add(menuItem("a", "3"), 3)

	_, err := NewPlacer(fc, nil, nil).Place(context.Background(), s, ana)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, s.Quantity("a"))
}

func TestPlaceRestaurantOverride(t *testing.T) {
	fc := &fakeCreator{}
	s := newStore(t)
	it := menuItem("a", "3")
	it.RestaurantID = "r9"
	s.Add(it, 1)
	_, err := NewPlacer(fc, nil, nil).Place(context.Background(), s, ana, ForRestaurant("r9"))
	require.NoError(t, err)
	assert.Equal(t, "r9", fc.got[0].RestaurantID)
}

func TestPlaceRejectsOtherRestaurant(t *testing.T) {
	burger := menuItem("r1-burger", "8")
	sushi := menuItem("r2-sushi", "12")
	sushi.RestaurantID = "r2"

	tests := []struct {
		name  string
		items []models.MenuItem
		opts  []Option
	}{
		{"mixed cart for first restaurant", []models.MenuItem{burger, sushi}, []Option{ForRestaurant("r1")}},
		{"mixed cart without override", []models.MenuItem{burger, sushi}, nil},
		{"single restaurant cart for another restaurant", []models.MenuItem{burger}, []Option{ForRestaurant("r2")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCreator{}
			s := newStore(t)
			for _, it := range tt.items {
				s.Add(it, 1)
			}
			_, err := NewPlacer(fc, nil, nil).Place(context.Background(), s, ana, tt.opts...)
			assert.ErrorIs(t, err, ErrMixedRestaurants)
			assert.Empty(t, fc.got)
			assert.Equal(t, len(tt.items), s.TotalItems(), "cart kept")
		})
	}
}

func TestPlaceValidatesOrder(t *testing.T) {
	tests := []struct {
		name    string
		fill    func(*cart.Store)
		problem string
	}{
		{
			name: "too many items",
			fill: func(s *cart.Store) {
				for i := 0; i < 51; i++ {
					s.Add(menuItem(fmt.Sprintf("item-%d", i), "1"), 1)
				}
			},
			problem: "order must contain at most 50 items",
		},
		{
			name: "negative price",
			fill: func(s *cart.Store) {
				s.Add(menuItem("a", "-2"), 1)
			},
			problem: "items[0]: price must not be negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCreator{}
			s := newStore(t)
			tt.fill(s)
			before := s.TotalItems()

			_, err := NewPlacer(fc, nil, nil).Place(context.Background(), s, ana)
			require.ErrorIs(t, err, validation.ErrInvalid)
			assert.Contains(t, validation.Problems(err), tt.problem)
			assert.Empty(t, fc.got)
			assert.Equal(t, before, s.TotalItems(), "cart kept")
		})
	}
}

func TestPlaceQuantityWithinOrderLimit(t *testing.T) {
	fc := &fakeCreator{}
	s := newStore(t)
	s.Add(menuItem("a", "1"), 150)

	_, err := NewPlacer(fc, nil, nil).Place(context.Background(), s, ana)
	require.NoError(t, err)
	require.Len(t, fc.got, 1)
	assert.Equal(t, models.MaxLineQuantity, fc.got[0].Items[0].Quantity)
	assert.NoError(t, validation.CreateOrder(fc.got[0]))
}
