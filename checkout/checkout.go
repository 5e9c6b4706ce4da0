// Package checkout turns a cart into a submitted order.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"foodscan/cart"
	"foodscan/models"
	"foodscan/pricing"
	"foodscan/validation"

	"go.uber.org/zap"
)

var (
	// ErrEmptyCart is returned when there is nothing to order.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrMixedRestaurants is returned when a cart line belongs to a restaurant other than the
	// one the order is placed at.
	ErrMixedRestaurants = errors.New("cart holds items from another restaurant")
)

// OrderCreator persists a new order. *services.Backend satisfies it.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error)
}

type Placer struct {
	creator OrderCreator
	tax     pricing.Tax
	log     *zap.Logger
}

func NewPlacer(creator OrderCreator, tax pricing.Tax, log *zap.Logger) *Placer {
	if tax == nil {
		tax = pricing.FlatRate(pricing.DefaultRate)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Placer{creator: creator, tax: tax, log: log}
}

type options struct {
	restaurantID string
	chatID       int64
}

type Option func(*options)

// ForRestaurant tags the order with the restaurant it was placed at.
func ForRestaurant(id string) Option {
	return func(o *options) { o.restaurantID = id }
}

// FromChat records the telegram chat that should receive status updates.
func FromChat(chatID int64) Option {
	return func(o *options) { o.chatID = chatID }
}

// Summary prices the store's current contents.
func (p *Placer) Summary(store *cart.Store) pricing.Summary {
	return pricing.Summarize(store.TotalPrice(), p.tax)
}

// Place submits the cart as a PENDING order. Every line must belong to the order's restaurant
// and the request must pass the same checks as a directly created order. The cart is cleared
// only after the order is accepted; on any error it is left untouched.
func (p *Placer) Place(ctx context.Context, store *cart.Store, customer models.CustomerInfo, opts ...Option) (models.Order, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if store.Empty() {
		return models.Order{}, ErrEmptyCart
	}
	if err := validation.Customer(customer); err != nil {
		return models.Order{}, err
	}

	req := p.request(store, customer, o)
	for _, l := range store.Lines() {
		if l.Item.RestaurantID != req.RestaurantID {
			return models.Order{}, fmt.Errorf("%w: %s is from %q, order is for %q",
				ErrMixedRestaurants, l.Item.ID, l.Item.RestaurantID, req.RestaurantID)
		}
	}
	if err := validation.CreateOrder(req); err != nil {
		return models.Order{}, err
	}
	order, err := p.creator.CreateOrder(ctx, req)
	if err != nil {
		p.log.Warn("order placement failed, cart kept",
			zap.Int("items", store.TotalItems()),
			zap.String("total", req.TotalAmount.String()),
			zap.Error(err),
		)
		return models.Order{}, fmt.Errorf("place order: %w", err)
	}

	store.Clear()
	p.log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("restaurant_id", req.RestaurantID),
		zap.String("total", req.TotalAmount.String()),
	)
	return order, nil
}

func (p *Placer) request(store *cart.Store, customer models.CustomerInfo, o options) models.CreateOrderRequest {
	lines := store.Lines()
	items := make([]models.CreateOrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.CreateOrderItem{
			MenuItemID: l.Item.ID,
			Quantity:   l.Quantity,
			Price:      l.Item.Price,
		})
	}
	restaurantID := o.restaurantID
	if restaurantID == "" && len(lines) > 0 {
		restaurantID = lines[0].Item.RestaurantID
	}
	return models.CreateOrderRequest{
		RestaurantID:    restaurantID,
		Items:           items,
		CustomerInfo:    customer,
		TotalAmount:     p.Summary(store).Total,
		Status:          models.StatusPending,
		TableNumber:     customer.TableNumber,
		SpecialRequests: customer.SpecialRequests,
		ChatID:          o.chatID,
	}
}
