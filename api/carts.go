package api

import (
	"fmt"
	"net/http"

	"foodscan/cart"
	"foodscan/checkout"
	"foodscan/models"
	"foodscan/pricing"

	"github.com/shopspring/decimal"
)

const (
	webSessionPrefix = "web:"
	maxSessionLen    = 128
)

type cartLine struct {
	models.MenuItem
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	Session    string     `json:"session"`
	Items      []cartLine `json:"items"`
	TotalItems int        `json:"totalItems"`
	pricing.Summary
}

type cartItemRequest struct {
	MenuItemID string `json:"menuItemId"`
	Delta      int    `json:"delta"`
}

type checkoutRequest struct {
	RestaurantID string              `json:"restaurantId,omitempty"`
	CustomerInfo models.CustomerInfo `json:"customerInfo"`
}

func (s *Server) view(session string, store *cart.Store) cartView {
	lines := store.Lines()
	v := cartView{Session: session, Items: make([]cartLine, 0, len(lines)), TotalItems: store.TotalItems()}
	for _, l := range lines {
		v.Items = append(v.Items, cartLine{MenuItem: l.Item, Quantity: l.Quantity, Subtotal: l.Subtotal()})
	}
	v.Summary = s.placer.Summary(store)
	return v
}

func cartSession(r *http.Request) (string, error) {
	session := r.PathValue("session")
	if session == "" || len(session) > maxSessionLen {
		return "", badRequest("invalid cart session")
	}
	return session, nil
}

// withCart runs fn against the session's store and writes the resulting cart.
func (s *Server) withCart(w http.ResponseWriter, r *http.Request, fn func(*cart.Store) error) {
	session, err := cartSession(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var v cartView
	err = s.carts.With(r.Context(), webSessionPrefix+session, func(store *cart.Store) error {
		if err := fn(store); err != nil {
			return err
		}
		v = s.view(session, store)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, v)
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.withCart(w, r, func(*cart.Store) error { return nil })
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.MenuItemID == "" {
		s.fail(w, r, badRequest("menuItemId is required"))
		return
	}
	if req.Delta > models.MaxLineQuantity || req.Delta < -models.MaxLineQuantity {
		s.fail(w, r, badRequest(fmt.Sprintf("delta must be between -%d and %d", models.MaxLineQuantity, models.MaxLineQuantity)))
		return
	}
	item, err := s.backend.GetMenuItem(r.Context(), req.MenuItemID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Delta > 0 && !item.Available {
		s.fail(w, r, badRequest(item.Name+" is not available"))
		return
	}
	s.withCart(w, r, func(store *cart.Store) error {
		if rid := store.RestaurantID(); req.Delta > 0 && rid != "" && rid != item.RestaurantID {
			return fmt.Errorf("%w: %s is from another restaurant", checkout.ErrMixedRestaurants, item.Name)
		}
		store.Add(item, req.Delta)
		return nil
	})
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("itemId")
	s.withCart(w, r, func(store *cart.Store) error {
		store.Remove(itemID)
		return nil
	})
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.withCart(w, r, func(store *cart.Store) error {
		store.Clear()
		return nil
	})
}

func (s *Server) checkoutCart(w http.ResponseWriter, r *http.Request) {
	session, err := cartSession(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var order models.Order
	err = s.carts.With(r.Context(), webSessionPrefix+session, func(store *cart.Store) error {
		var opts []checkout.Option
		if req.RestaurantID != "" {
			opts = append(opts, checkout.ForRestaurant(req.RestaurantID))
		}
		var err error
		order, err = s.placer.Place(r.Context(), store, req.CustomerInfo, opts...)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, order)
}
