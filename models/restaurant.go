package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Restaurant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateRestaurantRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
	TableReserved  = "reserved"
)

type Table struct {
	ID           int64  `json:"id"`
	RestaurantID string `json:"restaurantId"`
	Number       string `json:"number"`
	Seats        int    `json:"seats"`
	Status       string `json:"status"`
}

type CreateTableRequest struct {
	Number string `json:"number"`
	Seats  int    `json:"seats"`
}

type QRCode struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurantId"`
	TableNumber  string    `json:"tableNumber,omitempty"`
	QRCodeURL    string    `json:"qrCodeUrl"`
	BotURL       string    `json:"botUrl,omitempty"`
	IsActive     bool      `json:"isActive"`
	ScannedCount int       `json:"scannedCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type GenerateQRRequest struct {
	RestaurantID string `json:"restaurantId"`
	TableNumber  string `json:"tableNumber,omitempty"`
}

const (
	CustomerTierVIP     = "VIP"
	CustomerTierRegular = "Regular"

	// VIPOrderThreshold is the number of orders after which a customer is VIP.
	VIPOrderThreshold = 10
)

type CustomerSummary struct {
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email,omitempty"`
	TotalOrders int             `json:"totalOrders"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	LastOrder   time.Time       `json:"lastOrder"`
	Status      string          `json:"status"`
}

// CustomerTier maps an order count to the dashboard badge.
func CustomerTier(totalOrders int) string {
	if totalOrders >= VIPOrderThreshold {
		return CustomerTierVIP
	}
	return CustomerTierRegular
}
