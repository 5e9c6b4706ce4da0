package services

import (
	"context"
	"fmt"

	"foodscan/db"
	"foodscan/models"
)

const defaultPopularLimit = 5

// GetRestaurantStats builds the dashboard summary. Revenue figures exclude cancelled orders.
func GetRestaurantStats(ctx context.Context, restaurantID string) (models.RestaurantStats, error) {
	var s models.RestaurantStats
	var billable int
	err := db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*)::int,
			COALESCE(SUM(total_amount) FILTER (WHERE status <> 'CANCELLED'), 0),
			COUNT(*) FILTER (WHERE status <> 'CANCELLED')::int,
			COUNT(*) FILTER (WHERE created_at::date = CURRENT_DATE)::int,
			COALESCE(SUM(total_amount) FILTER (WHERE created_at::date = CURRENT_DATE AND status <> 'CANCELLED'), 0)
		FROM orders WHERE restaurant_id = $1`,
		restaurantID,
	).Scan(&s.TotalOrders, &s.TotalRevenue, &billable, &s.TodayOrders, &s.TodayRevenue)
	if err != nil {
		return models.RestaurantStats{}, fmt.Errorf("restaurant stats: %w", err)
	}

	s.AverageOrderValue = models.AverageOrderValue(s.TotalRevenue, billable)

	if s.PopularItems, err = GetPopularItems(ctx, restaurantID, defaultPopularLimit); err != nil {
		return models.RestaurantStats{}, err
	}
	if s.OrderStatusBreakdown, err = statusBreakdown(ctx, restaurantID); err != nil {
		return models.RestaurantStats{}, err
	}
	if s.RevenueByDay, err = revenueByDay(ctx, restaurantID, 7); err != nil {
		return models.RestaurantStats{}, err
	}
	return s, nil
}

// GetPopularItems ranks menu items by units sold in non-cancelled orders.
func GetPopularItems(ctx context.Context, restaurantID string, limit int) ([]models.PopularItem, error) {
	if limit <= 0 {
		limit = defaultPopularLimit
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT oi.menu_item_id, MAX(oi.name), SUM(oi.quantity)::int, SUM(oi.price * oi.quantity)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.restaurant_id = $1 AND o.status <> 'CANCELLED'
		GROUP BY oi.menu_item_id
		ORDER BY SUM(oi.quantity) DESC, MAX(oi.name)
		LIMIT $2`,
		restaurantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("popular items: %w", err)
	}
	defer rows.Close()

	out := []models.PopularItem{}
	for rows.Next() {
		var p models.PopularItem
		if err := rows.Scan(&p.MenuItemID, &p.Name, &p.OrderCount, &p.TotalRevenue); err != nil {
			return nil, fmt.Errorf("scan popular item: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// statusBreakdown reports a count for every status, zero included, in lifecycle order.
func statusBreakdown(ctx context.Context, restaurantID string) ([]models.OrderStatusCount, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT status, COUNT(*)::int FROM orders WHERE restaurant_id = $1 GROUP BY status`,
		restaurantID,
	)
	if err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.OrderStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.OrderStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]models.OrderStatusCount, 0, len(models.OrderStatuses))
	for _, st := range models.OrderStatuses {
		out = append(out, models.OrderStatusCount{Status: st, Count: counts[st]})
	}
	return out, nil
}

func revenueByDay(ctx context.Context, restaurantID string, days int) ([]models.RevenueByDay, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT to_char(d, 'YYYY-MM-DD'),
			COALESCE(SUM(o.total_amount) FILTER (WHERE o.status <> 'CANCELLED'), 0),
			COUNT(o.id)::int
		FROM generate_series(CURRENT_DATE - ($2::int - 1), CURRENT_DATE, interval '1 day') AS d
		LEFT JOIN orders o ON o.restaurant_id = $1 AND o.created_at::date = d::date
		GROUP BY d
		ORDER BY d`,
		restaurantID, days,
	)
	if err != nil {
		return nil, fmt.Errorf("revenue by day: %w", err)
	}
	defer rows.Close()

	out := []models.RevenueByDay{}
	for rows.Next() {
		var r models.RevenueByDay
		if err := rows.Scan(&r.Date, &r.Revenue, &r.OrderCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
