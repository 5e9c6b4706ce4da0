package services

import (
	"context"
	"fmt"
	"strings"

	"foodscan/db"
	"foodscan/models"
)

// ListCustomers groups a restaurant's orders by phone number. Search matches name, phone or email.
func ListCustomers(ctx context.Context, restaurantID, search string) ([]models.CustomerSummary, error) {
	args := []any{restaurantID}
	where := "restaurant_id = $1"
	if s := strings.TrimSpace(search); s != "" {
		args = append(args, "%"+s+"%")
		where += " AND (customer_name ILIKE $2 OR customer_phone ILIKE $2 OR customer_email ILIKE $2)"
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT
			(array_agg(customer_name ORDER BY created_at DESC))[1],
			customer_phone,
			(array_agg(customer_email ORDER BY created_at DESC))[1],
			COUNT(*)::int,
			COALESCE(SUM(total_amount) FILTER (WHERE status <> 'CANCELLED'), 0),
			MAX(created_at)
		FROM orders
		WHERE `+where+`
		GROUP BY customer_phone
		ORDER BY MAX(created_at) DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	out := []models.CustomerSummary{}
	for rows.Next() {
		var c models.CustomerSummary
		if err := rows.Scan(&c.Name, &c.Phone, &c.Email, &c.TotalOrders, &c.TotalSpent, &c.LastOrder); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		c.Status = models.CustomerTier(c.TotalOrders)
		out = append(out, c)
	}
	return out, rows.Err()
}
