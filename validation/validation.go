// Package validation checks request bodies at the API and checkout boundaries.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"foodscan/models"

	"github.com/shopspring/decimal"
)

// ErrInvalid is matched by every *Error.
var ErrInvalid = errors.New("invalid request")

// Error collects every problem found in one request.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func (e *Error) Is(target error) bool { return target == ErrInvalid }

func (e *Error) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *Error) err() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

var phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{5,20}$`)

const (
	maxNameLen     = 100
	maxItems       = 50
	maxQuantity    = models.MaxLineQuantity
	maxRequestsLen = 500
)

// Customer validates the contact details an order is placed under.
func Customer(c models.CustomerInfo) error {
	v := &Error{}
	customer(v, c)
	return v.err()
}

func customer(v *Error, c models.CustomerInfo) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		v.add("customer name is required")
	} else if utf8.RuneCountInString(name) > maxNameLen {
		v.add("customer name must be at most %d characters", maxNameLen)
	}
	phone := strings.TrimSpace(c.Phone)
	if phone == "" {
		v.add("phone is required")
	} else if !phonePattern.MatchString(phone) {
		v.add("phone %q is not a valid phone number", phone)
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			v.add("email %q is not a valid address", c.Email)
		}
	}
	if utf8.RuneCountInString(c.SpecialRequests) > maxRequestsLen {
		v.add("special requests must be at most %d characters", maxRequestsLen)
	}
}

// CreateOrder validates a new order. A missing status is allowed and later defaults to PENDING.
func CreateOrder(req models.CreateOrderRequest) error {
	v := &Error{}
	customer(v, req.CustomerInfo)
	if len(req.Items) == 0 {
		v.add("order must contain at least one item")
	} else if len(req.Items) > maxItems {
		v.add("order must contain at most %d items", maxItems)
	}
	seen := make(map[string]bool, len(req.Items))
	for i, it := range req.Items {
		if it.MenuItemID == "" {
			v.add("items[%d]: menuItemId is required", i)
		} else if seen[it.MenuItemID] {
			v.add("items[%d]: duplicate menuItemId %q", i, it.MenuItemID)
		}
		seen[it.MenuItemID] = true
		if it.Quantity < 1 || it.Quantity > maxQuantity {
			v.add("items[%d]: quantity must be between 1 and %d", i, maxQuantity)
		}
		if it.Price.IsNegative() {
			v.add("items[%d]: price must not be negative", i)
		}
	}
	if req.TotalAmount.IsNegative() {
		v.add("totalAmount must not be negative")
	}
	if req.Status != "" && req.Status != models.StatusPending {
		v.add("new orders must start as %s", models.StatusPending)
	}
	return v.err()
}

// MenuItem validates a create or update body.
func MenuItem(req models.CreateMenuItemRequest) error {
	v := &Error{}
	if strings.TrimSpace(req.Name) == "" {
		v.add("name is required")
	} else if utf8.RuneCountInString(req.Name) > maxNameLen {
		v.add("name must be at most %d characters", maxNameLen)
	}
	if strings.TrimSpace(req.Category) == "" {
		v.add("category is required")
	}
	if !req.Price.GreaterThan(decimal.Zero) {
		v.add("price must be positive")
	}
	if req.PreparationTime < 0 {
		v.add("preparationTime must not be negative")
	}
	return v.err()
}

// Restaurant validates a create or update body.
func Restaurant(req models.CreateRestaurantRequest) error {
	v := &Error{}
	if strings.TrimSpace(req.Name) == "" {
		v.add("name is required")
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			v.add("email %q is not a valid address", req.Email)
		}
	}
	return v.err()
}

// Table validates a new table.
func Table(req models.CreateTableRequest) error {
	v := &Error{}
	if strings.TrimSpace(req.Number) == "" {
		v.add("table number is required")
	}
	if req.Seats < 1 || req.Seats > 50 {
		v.add("seats must be between 1 and 50")
	}
	return v.err()
}

// Problems extracts the messages of a validation error, nil for any other error.
func Problems(err error) []string {
	var v *Error
	if errors.As(err, &v) {
		return v.Problems
	}
	return nil
}
