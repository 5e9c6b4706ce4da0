package services

import (
	"context"

	"foodscan/broker"
	"foodscan/models"

	"go.uber.org/zap"
)

// Backend exposes the package functions as methods so the HTTP API and the bot can depend on
// interfaces. Order writes are announced on Events after they commit; a publish failure is
// logged and does not undo the write.
type Backend struct {
	Events      broker.Publisher
	Log         *zap.Logger
	PublicURL   string
	BotUsername string
}

func NewBackend(events broker.Publisher, log *zap.Logger, publicURL, botUsername string) *Backend {
	if events == nil {
		events = broker.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{Events: events, Log: log, PublicURL: publicURL, BotUsername: botUsername}
}

func (b *Backend) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	o, err := CreateOrder(ctx, req)
	if err != nil {
		return models.Order{}, err
	}
	b.Log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("restaurant_id", o.RestaurantID),
		zap.Int("items", len(o.Items)),
		zap.String("total", o.TotalAmount.String()),
	)
	if err := b.Events.PublishOrderCreated(ctx, o); err != nil {
		b.Log.Warn("publish order created failed", zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}

func (b *Backend) UpdateOrderStatus(ctx context.Context, id string, to models.OrderStatus, changedBy string) (models.StatusChange, error) {
	change, err := UpdateOrderStatus(ctx, id, to, changedBy)
	if err != nil {
		return models.StatusChange{}, err
	}
	b.Log.Info("order status changed",
		zap.String("order_id", id),
		zap.String("from", string(change.OldStatus)),
		zap.String("to", string(change.NewStatus)),
		zap.String("by", changedBy),
	)
	if err := b.Events.PublishStatusChanged(ctx, change); err != nil {
		b.Log.Warn("publish status change failed", zap.String("order_id", id), zap.Error(err))
	}
	return change, nil
}

func (b *Backend) GetOrder(ctx context.Context, id string) (models.Order, error) {
	return GetOrder(ctx, id)
}

func (b *Backend) ListOrders(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	return ListOrders(ctx, q)
}

func (b *Backend) OrderHistory(ctx context.Context, id string) ([]models.OrderStatusLog, error) {
	return OrderHistory(ctx, id)
}

func (b *Backend) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	return ListRestaurants(ctx)
}

func (b *Backend) GetRestaurant(ctx context.Context, id string) (models.Restaurant, error) {
	return GetRestaurant(ctx, id)
}

func (b *Backend) CreateRestaurant(ctx context.Context, req models.CreateRestaurantRequest) (models.Restaurant, error) {
	return CreateRestaurant(ctx, req)
}

func (b *Backend) UpdateRestaurant(ctx context.Context, id string, req models.CreateRestaurantRequest) (models.Restaurant, error) {
	return UpdateRestaurant(ctx, id, req)
}

func (b *Backend) DeleteRestaurant(ctx context.Context, id string) error {
	return DeleteRestaurant(ctx, id)
}

func (b *Backend) ListMenu(ctx context.Context, restaurantID string, f models.MenuFilter) ([]models.MenuItem, error) {
	return ListMenu(ctx, restaurantID, f)
}

func (b *Backend) ListCategories(ctx context.Context, restaurantID string) ([]string, error) {
	return ListCategories(ctx, restaurantID)
}

func (b *Backend) GetMenuItem(ctx context.Context, id string) (models.MenuItem, error) {
	return GetMenuItem(ctx, id)
}

func (b *Backend) CreateMenuItem(ctx context.Context, restaurantID string, req models.CreateMenuItemRequest) (models.MenuItem, error) {
	return CreateMenuItem(ctx, restaurantID, req)
}

func (b *Backend) UpdateMenuItem(ctx context.Context, id string, req models.CreateMenuItemRequest) (models.MenuItem, error) {
	return UpdateMenuItem(ctx, id, req)
}

func (b *Backend) SetMenuItemAvailability(ctx context.Context, id string, available bool) (models.MenuItem, error) {
	return SetMenuItemAvailability(ctx, id, available)
}

func (b *Backend) DeleteMenuItem(ctx context.Context, id string) error {
	return DeleteMenuItem(ctx, id)
}

func (b *Backend) ListTables(ctx context.Context, restaurantID string) ([]models.Table, error) {
	return ListTables(ctx, restaurantID)
}

func (b *Backend) CreateTable(ctx context.Context, restaurantID string, req models.CreateTableRequest) (models.Table, error) {
	return CreateTable(ctx, restaurantID, req)
}

func (b *Backend) DeleteTable(ctx context.Context, restaurantID string, tableID int64) error {
	return DeleteTable(ctx, restaurantID, tableID)
}

func (b *Backend) ToggleTable(ctx context.Context, restaurantID string, tableID int64) (models.Table, error) {
	return ToggleTable(ctx, restaurantID, tableID)
}

func (b *Backend) GenerateQRCode(ctx context.Context, req models.GenerateQRRequest) (models.QRCode, error) {
	return GenerateQRCode(ctx, req, b.PublicURL, b.BotUsername)
}

func (b *Backend) ScanQRCode(ctx context.Context, id string) (models.QRCode, error) {
	return ScanQRCode(ctx, id)
}

func (b *Backend) GetRestaurantStats(ctx context.Context, restaurantID string) (models.RestaurantStats, error) {
	return GetRestaurantStats(ctx, restaurantID)
}

func (b *Backend) GetOrderStats(ctx context.Context, restaurantID, startDate, endDate string) (models.OrderStats, error) {
	return GetOrderStats(ctx, restaurantID, startDate, endDate)
}

func (b *Backend) GetPopularItems(ctx context.Context, restaurantID string, limit int) ([]models.PopularItem, error) {
	return GetPopularItems(ctx, restaurantID, limit)
}

func (b *Backend) ListCustomers(ctx context.Context, restaurantID, search string) ([]models.CustomerSummary, error) {
	return ListCustomers(ctx, restaurantID, search)
}

func (b *Backend) VerifyAccess(ctx context.Context, email string) (models.AccessVerificationResponse, error) {
	return VerifyAccess(ctx, email)
}

func (b *Backend) CreatePassword(ctx context.Context, req models.CreatePasswordRequest) error {
	return CreatePassword(ctx, req)
}

func (b *Backend) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	resp, err := Login(ctx, req)
	if err != nil {
		b.Log.Info("owner login rejected", zap.String("email", normalizeEmail(req.Email)), zap.Error(err))
		return models.LoginResponse{}, err
	}
	b.Log.Info("owner logged in", zap.String("owner_id", resp.User.ID))
	return resp, nil
}

func (b *Backend) OwnerBySession(ctx context.Context, token string) (models.OwnerUser, error) {
	return OwnerBySession(ctx, token)
}
