package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is owned by the catalog; the cart only reads it.
type MenuItem struct {
	ID              string          `json:"id"`
	RestaurantID    string          `json:"restaurantId"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Category        string          `json:"category"`
	ImageURL        string          `json:"imageUrl,omitempty"`
	Available       bool            `json:"available"`
	PreparationTime int             `json:"preparationTime,omitempty"` // minutes
	Allergens       []string        `json:"allergens,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type CreateMenuItemRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Category        string          `json:"category"`
	ImageURL        string          `json:"imageUrl,omitempty"`
	Available       *bool           `json:"available,omitempty"`
	PreparationTime int             `json:"preparationTime,omitempty"`
	Allergens       []string        `json:"allergens,omitempty"`
}

// MenuFilter narrows a menu listing. Zero values mean "no constraint".
type MenuFilter struct {
	Category  string
	Search    string
	Available *bool
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	SortField string // name, price, category, createdAt
	SortDesc  bool
}

// MaxLineQuantity caps the quantity of a single cart or order line.
const MaxLineQuantity = 99

const (
	SortByName      = "name"
	SortByPrice     = "price"
	SortByCategory  = "category"
	SortByCreatedAt = "createdAt"
)
