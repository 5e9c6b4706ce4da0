// Package api serves the REST interface used by the customer menu and the owner dashboard.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"foodscan/cart"
	"foodscan/checkout"
	"foodscan/models"
	"foodscan/services"

	"go.uber.org/zap"
)

// Backend is everything the handlers need from storage. *services.Backend implements it.
type Backend interface {
	ListRestaurants(ctx context.Context) ([]models.Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (models.Restaurant, error)
	CreateRestaurant(ctx context.Context, req models.CreateRestaurantRequest) (models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, id string, req models.CreateRestaurantRequest) (models.Restaurant, error)
	DeleteRestaurant(ctx context.Context, id string) error

	ListMenu(ctx context.Context, restaurantID string, f models.MenuFilter) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (models.MenuItem, error)
	CreateMenuItem(ctx context.Context, restaurantID string, req models.CreateMenuItemRequest) (models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id string, req models.CreateMenuItemRequest) (models.MenuItem, error)
	SetMenuItemAvailability(ctx context.Context, id string, available bool) (models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id string) error

	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error)
	GetOrder(ctx context.Context, id string) (models.Order, error)
	ListOrders(ctx context.Context, q services.OrderQuery) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, to models.OrderStatus, changedBy string) (models.StatusChange, error)
	OrderHistory(ctx context.Context, id string) ([]models.OrderStatusLog, error)

	ListTables(ctx context.Context, restaurantID string) ([]models.Table, error)
	CreateTable(ctx context.Context, restaurantID string, req models.CreateTableRequest) (models.Table, error)
	DeleteTable(ctx context.Context, restaurantID string, tableID int64) error
	ToggleTable(ctx context.Context, restaurantID string, tableID int64) (models.Table, error)
	GenerateQRCode(ctx context.Context, req models.GenerateQRRequest) (models.QRCode, error)
	ScanQRCode(ctx context.Context, id string) (models.QRCode, error)

	GetRestaurantStats(ctx context.Context, restaurantID string) (models.RestaurantStats, error)
	GetOrderStats(ctx context.Context, restaurantID, startDate, endDate string) (models.OrderStats, error)
	GetPopularItems(ctx context.Context, restaurantID string, limit int) ([]models.PopularItem, error)
	ListCustomers(ctx context.Context, restaurantID, search string) ([]models.CustomerSummary, error)

	VerifyAccess(ctx context.Context, email string) (models.AccessVerificationResponse, error)
	CreatePassword(ctx context.Context, req models.CreatePasswordRequest) error
	Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error)
	OwnerBySession(ctx context.Context, token string) (models.OwnerUser, error)
}

type Server struct {
	backend Backend
	carts   *cart.Registry
	placer  *checkout.Placer
	log     *zap.Logger
}

func NewServer(backend Backend, carts *cart.Registry, placer *checkout.Placer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{backend: backend, carts: carts, placer: placer, log: log}
}

// Handler returns the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /api/restaurants", s.listRestaurants)
	mux.HandleFunc("POST /api/restaurants", s.requireOwner(s.createRestaurant))
	mux.HandleFunc("GET /api/restaurants/{id}", s.getRestaurant)
	mux.HandleFunc("PUT /api/restaurants/{id}", s.requireOwner(s.updateRestaurant))
	mux.HandleFunc("DELETE /api/restaurants/{id}", s.requireOwner(s.deleteRestaurant))

	mux.HandleFunc("GET /api/restaurants/{id}/menu-items", s.listMenu)
	mux.HandleFunc("POST /api/restaurants/{id}/menu-items", s.requireOwner(s.createMenuItem))
	mux.HandleFunc("GET /api/restaurants/{id}/menu-items/{itemId}", s.getMenuItem)
	mux.HandleFunc("PUT /api/restaurants/{id}/menu-items/{itemId}", s.requireOwner(s.updateMenuItem))
	mux.HandleFunc("DELETE /api/restaurants/{id}/menu-items/{itemId}", s.requireOwner(s.deleteMenuItem))
	mux.HandleFunc("PATCH /api/restaurants/{id}/menu-items/{itemId}/availability", s.requireOwner(s.setAvailability))

	mux.HandleFunc("POST /api/orders", s.createOrder)
	mux.HandleFunc("GET /api/orders", s.requireOwner(s.listOrders))
	mux.HandleFunc("GET /api/orders/{id}", s.getOrder)
	mux.HandleFunc("PUT /api/orders/{id}/status", s.requireOwner(s.updateOrderStatus))
	mux.HandleFunc("GET /api/orders/{id}/history", s.orderHistory)
	mux.HandleFunc("GET /api/restaurants/{id}/orders", s.requireOwner(s.restaurantOrders))

	mux.HandleFunc("GET /api/restaurants/{id}/tables", s.requireOwner(s.listTables))
	mux.HandleFunc("POST /api/restaurants/{id}/tables", s.requireOwner(s.createTable))
	mux.HandleFunc("DELETE /api/restaurants/{id}/tables/{tableId}", s.requireOwner(s.deleteTable))
	mux.HandleFunc("PATCH /api/restaurants/{id}/tables/{tableId}/toggle", s.requireOwner(s.toggleTable))
	mux.HandleFunc("POST /api/qr-codes/generate", s.requireOwner(s.generateQR))
	mux.HandleFunc("GET /api/qr-codes/{id}", s.scanQR)

	mux.HandleFunc("GET /api/analytics/restaurants/{id}", s.requireOwner(s.restaurantStats))
	mux.HandleFunc("GET /api/analytics/restaurants/{id}/orders", s.requireOwner(s.orderStats))
	mux.HandleFunc("GET /api/analytics/restaurants/{id}/popular-items", s.requireOwner(s.popularItems))
	mux.HandleFunc("GET /api/restaurants/{id}/customers", s.requireOwner(s.listCustomers))

	mux.HandleFunc("GET /api/carts/{session}", s.getCart)
	mux.HandleFunc("POST /api/carts/{session}/items", s.addCartItem)
	mux.HandleFunc("DELETE /api/carts/{session}/items/{itemId}", s.removeCartItem)
	mux.HandleFunc("DELETE /api/carts/{session}", s.clearCart)
	mux.HandleFunc("POST /api/carts/{session}/checkout", s.checkoutCart)

	mux.HandleFunc("POST /api/auth/verify-access", s.verifyAccess)
	mux.HandleFunc("POST /api/auth/create-password", s.createPassword)
	mux.HandleFunc("POST /api/auth/login", s.login)

	return s.logRequests(mux)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server started", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}
