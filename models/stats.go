package models

import "github.com/shopspring/decimal"

type RestaurantStats struct {
	TotalOrders          int                `json:"totalOrders"`
	TotalRevenue         decimal.Decimal    `json:"totalRevenue"`
	AverageOrderValue    decimal.Decimal    `json:"averageOrderValue"`
	TodayOrders          int                `json:"todayOrders"`
	TodayRevenue         decimal.Decimal    `json:"todayRevenue"`
	PopularItems         []PopularItem      `json:"popularItems"`
	OrderStatusBreakdown []OrderStatusCount `json:"orderStatusBreakdown"`
	RevenueByDay         []RevenueByDay     `json:"revenueByDay"`
}

type PopularItem struct {
	MenuItemID   string          `json:"menuItemId"`
	Name         string          `json:"name"`
	OrderCount   int             `json:"orderCount"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

type OrderStatusCount struct {
	Status OrderStatus `json:"status"`
	Count  int         `json:"count"`
}

type RevenueByDay struct {
	Date       string          `json:"date"` // YYYY-MM-DD
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int             `json:"orderCount"`
}

// OrderStats is the result of a date-ranged order query.
type OrderStats struct {
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	OrdersCount    int             `json:"ordersCount"`
	Revenue        decimal.Decimal `json:"revenue"`
	AverageOrder   decimal.Decimal `json:"averageOrderValue"`
	DeliveredCount int             `json:"deliveredCount"`
	CancelledCount int             `json:"cancelledCount"`
}

// AverageOrderValue divides revenue by count, rounded to cents. Zero orders yield zero.
func AverageOrderValue(revenue decimal.Decimal, orders int) decimal.Decimal {
	if orders <= 0 {
		return decimal.Zero
	}
	return revenue.Div(decimal.NewFromInt(int64(orders))).Round(2)
}
