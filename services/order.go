package services

import (
	"context"
	"fmt"

	"foodscan/db"
	"foodscan/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var statusTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusPreparing, models.StatusCancelled},
	models.StatusPreparing: {models.StatusReady},
	models.StatusReady:     {models.StatusDelivered},
}

// NextStatuses lists the statuses an order in from may move to, in button order.
func NextStatuses(from models.OrderStatus) []models.OrderStatus {
	return statusTransitions[from]
}

// ValidStatusTransition reports whether from -> to is an allowed move.
func ValidStatusTransition(from, to models.OrderStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CreateOrder inserts the order, its items and the first status log row in one transaction.
// Item names are copied from the menu so the order keeps them if the menu changes.
func CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	status := req.Status
	if status == "" {
		status = models.StatusPending
	}
	tableNumber := req.TableNumber
	if tableNumber == "" {
		tableNumber = req.CustomerInfo.TableNumber
	}
	special := req.SpecialRequests
	if special == "" {
		special = req.CustomerInfo.SpecialRequests
	}
	var restaurantID *string
	if req.RestaurantID != "" {
		restaurantID = &req.RestaurantID
	}

	o := models.Order{
		ID:           uuid.NewString(),
		RestaurantID: req.RestaurantID,
		CustomerInfo: req.CustomerInfo,
		Status:       status,
		TotalAmount:  req.TotalAmount,
		ChatID:       req.ChatID,
	}
	o.CustomerInfo.TableNumber = tableNumber
	o.CustomerInfo.SpecialRequests = special

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return models.Order{}, fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (
			id, restaurant_id, customer_name, customer_phone, customer_email,
			table_number, special_requests, status, total_amount, chat_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10)
		RETURNING created_at, updated_at`,
		o.ID, restaurantID, req.CustomerInfo.Name, req.CustomerInfo.Phone, req.CustomerInfo.Email,
		tableNumber, special, string(status), req.TotalAmount, req.ChatID,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return models.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for _, it := range req.Items {
		item := models.OrderItem{
			ID:              uuid.NewString(),
			OrderID:         o.ID,
			MenuItemID:      it.MenuItemID,
			Quantity:        it.Quantity,
			Price:           it.Price,
			SpecialRequests: it.SpecialRequests,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (id, order_id, menu_item_id, name, quantity, price, special_requests)
			VALUES ($1, $2, $3, COALESCE((SELECT name FROM menu_items WHERE id = $3), ''), $4, $5::numeric, $6)
			RETURNING name`,
			item.ID, item.OrderID, item.MenuItemID, item.Quantity, item.Price, item.SpecialRequests,
		).Scan(&item.Name)
		if err != nil {
			return models.Order{}, fmt.Errorf("insert order item %s: %w", it.MenuItemID, err)
		}
		o.Items = append(o.Items, item)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, note)
		VALUES ($1, $2, 'customer', 'order placed')`,
		o.ID, string(status),
	); err != nil {
		return models.Order{}, fmt.Errorf("insert status log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("commit create order: %w", err)
	}
	return o, nil
}

const orderColumns = `
	id, COALESCE(restaurant_id, ''), customer_name, customer_phone, customer_email,
	table_number, special_requests, status, total_amount, chat_id, created_at, updated_at`

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	var status string
	err := row.Scan(
		&o.ID, &o.RestaurantID, &o.CustomerInfo.Name, &o.CustomerInfo.Phone, &o.CustomerInfo.Email,
		&o.CustomerInfo.TableNumber, &o.CustomerInfo.SpecialRequests, &status, &o.TotalAmount, &o.ChatID,
		&o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = models.OrderStatus(status)
	return o, err
}

func GetOrder(ctx context.Context, id string) (models.Order, error) {
	o, err := scanOrder(db.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return models.Order{}, notFound(err, "get order "+id)
	}
	items, err := orderItems(ctx, []string{id})
	if err != nil {
		return models.Order{}, err
	}
	o.Items = items[id]
	return o, nil
}

// OrderQuery narrows ListOrders. Zero fields are ignored.
type OrderQuery struct {
	RestaurantID string
	Status       models.OrderStatus
	ChatID       int64
	Limit        int
}

// ListOrders returns matching orders newest first, with their items.
func ListOrders(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE true`
	var args []any
	if q.RestaurantID != "" {
		args = append(args, q.RestaurantID)
		sql += fmt.Sprintf(" AND restaurant_id = $%d", len(args))
	}
	if q.Status != "" {
		args = append(args, string(q.Status))
		sql += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if q.ChatID != 0 {
		args = append(args, q.ChatID)
		sql += fmt.Sprintf(" AND chat_id = $%d", len(args))
	}
	sql += " ORDER BY created_at DESC"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	ids := []string{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(ids) == 0 {
		return orders, nil
	}

	items, err := orderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func orderItems(ctx context.Context, orderIDs []string) (map[string][]models.OrderItem, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, order_id, menu_item_id, name, quantity, price, special_requests
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, name`,
		orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.OrderItem, len(orderIDs))
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &it.Price, &it.SpecialRequests); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

// UpdateOrderStatus moves an order along the status graph and logs the change. The row is locked
// so two owners pressing buttons at once cannot both succeed from the same state.
func UpdateOrderStatus(ctx context.Context, id string, to models.OrderStatus, changedBy string) (models.StatusChange, error) {
	if !to.Valid() {
		return models.StatusChange{}, fmt.Errorf("status %q: %w", to, ErrInvalidTransition)
	}
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return models.StatusChange{}, fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback(ctx)

	var from string
	if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&from); err != nil {
		return models.StatusChange{}, notFound(err, "lock order "+id)
	}
	if !ValidStatusTransition(models.OrderStatus(from), to) {
		return models.StatusChange{}, fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}

	change := models.StatusChange{OrderID: id, OldStatus: models.OrderStatus(from), NewStatus: to, ChangedBy: changedBy}
	if err := tx.QueryRow(ctx, `
		UPDATE orders SET status = $1, updated_at = now() WHERE id = $2
		RETURNING updated_at`,
		string(to), id,
	).Scan(&change.ChangedAt); err != nil {
		return models.StatusChange{}, fmt.Errorf("update order status: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)`,
		id, string(to), changedBy, change.ChangedAt,
	); err != nil {
		return models.StatusChange{}, fmt.Errorf("insert status log: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.StatusChange{}, fmt.Errorf("commit status update: %w", err)
	}
	return change, nil
}

// OrderHistory returns the status log of an order, oldest first.
func OrderHistory(ctx context.Context, id string) ([]models.OrderStatusLog, error) {
	var exists bool
	if err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("order history %s: %w", id, ErrNotFound)
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT id, order_id, status, changed_by, note, changed_at
		FROM order_status_log WHERE order_id = $1
		ORDER BY changed_at, id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	defer rows.Close()

	logs := []models.OrderStatusLog{}
	for rows.Next() {
		var l models.OrderStatusLog
		var status string
		if err := rows.Scan(&l.ID, &l.OrderID, &status, &l.ChangedBy, &l.Note, &l.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan status log: %w", err)
		}
		l.Status = models.OrderStatus(status)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// GetOrderStats aggregates orders created between startDate and endDate inclusive (YYYY-MM-DD).
// Revenue excludes cancelled orders.
func GetOrderStats(ctx context.Context, restaurantID, startDate, endDate string) (models.OrderStats, error) {
	s := models.OrderStats{StartDate: startDate, EndDate: endDate}
	err := db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*)::int,
			COALESCE(SUM(total_amount) FILTER (WHERE status <> 'CANCELLED'), 0),
			COUNT(*) FILTER (WHERE status = 'DELIVERED')::int,
			COUNT(*) FILTER (WHERE status = 'CANCELLED')::int
		FROM orders
		WHERE restaurant_id = $1 AND created_at::date BETWEEN $2::date AND $3::date`,
		restaurantID, startDate, endDate,
	).Scan(&s.OrdersCount, &s.Revenue, &s.DeliveredCount, &s.CancelledCount)
	if err != nil {
		return models.OrderStats{}, fmt.Errorf("order stats: %w", err)
	}
	s.AverageOrder = models.AverageOrderValue(s.Revenue, s.OrdersCount-s.CancelledCount)
	return s, nil
}
