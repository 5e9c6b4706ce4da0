package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type CustomerInfo struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email,omitempty"`
	TableNumber     string `json:"tableNumber,omitempty"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}

type Order struct {
	ID           string          `json:"id"`
	RestaurantID string          `json:"restaurantId,omitempty"`
	Items        []OrderItem     `json:"items"`
	CustomerInfo CustomerInfo    `json:"customerInfo"`
	Status       OrderStatus     `json:"status"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	ChatID       int64           `json:"-"` // telegram chat of the customer, 0 for web orders
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type OrderItem struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"orderId"`
	MenuItemID      string          `json:"menuItemId"`
	Name            string          `json:"name,omitempty"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"` // price at time of order
	SpecialRequests string          `json:"specialRequests,omitempty"`
}

type CreateOrderItem struct {
	MenuItemID      string          `json:"menuItemId"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	SpecialRequests string          `json:"specialRequests,omitempty"`
}

// CreateOrderRequest is the body of the order-creation call.
type CreateOrderRequest struct {
	RestaurantID    string            `json:"restaurantId,omitempty"`
	Items           []CreateOrderItem `json:"items"`
	CustomerInfo    CustomerInfo      `json:"customerInfo"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	Status          OrderStatus       `json:"status"`
	TableNumber     string            `json:"tableNumber,omitempty"`
	SpecialRequests string            `json:"specialRequests,omitempty"`
	ChatID          int64             `json:"-"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

type OrderStatusLog struct {
	ID        int64       `json:"id"`
	OrderID   string      `json:"orderId"`
	Status    OrderStatus `json:"status"`
	ChangedBy string      `json:"changedBy"`
	ChangedAt time.Time   `json:"changedAt"`
	Note      string      `json:"note,omitempty"`
}

// StatusChange is published whenever an order moves to a new status.
type StatusChange struct {
	OrderID   string      `json:"orderId"`
	OldStatus OrderStatus `json:"oldStatus"`
	NewStatus OrderStatus `json:"newStatus"`
	ChangedBy string      `json:"changedBy"`
	ChangedAt time.Time   `json:"changedAt"`
}
