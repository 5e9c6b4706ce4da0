package validation

import (
	"errors"
	"testing"

	"foodscan/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCustomer(t *testing.T) {
	tests := []struct {
		name    string
		in      models.CustomerInfo
		wantErr bool
	}{
		{"ok", models.CustomerInfo{Name: "Ana", Phone: "+1 555-0100"}, false},
		{"ok with email", models.CustomerInfo{Name: "Ana", Phone: "5550100", Email: "ana@example.com"}, false},
		{"missing name", models.CustomerInfo{Phone: "5550100"}, true},
		{"blank name", models.CustomerInfo{Name: "   ", Phone: "5550100"}, true},
		{"missing phone", models.CustomerInfo{Name: "Ana"}, true},
		{"bad phone", models.CustomerInfo{Name: "Ana", Phone: "call me"}, true},
		{"bad email", models.CustomerInfo{Name: "Ana", Phone: "5550100", Email: "nope"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Customer(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				assert.NotEmpty(t, Problems(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateOrderCollectsAllProblems(t *testing.T) {
	err := CreateOrder(models.CreateOrderRequest{
		Items: []models.CreateOrderItem{
			{MenuItemID: "a", Quantity: 0, Price: decimal.NewFromInt(1)},
			{MenuItemID: "a", Quantity: 1, Price: decimal.NewFromInt(-1)},
		},
		Status: models.StatusReady,
	})
	assert.ErrorIs(t, err, ErrInvalid)
	// name, phone, quantity, duplicate, price, status
	assert.Len(t, Problems(err), 6)
}

func TestCreateOrderAcceptsValid(t *testing.T) {
	err := CreateOrder(models.CreateOrderRequest{
		Items:        []models.CreateOrderItem{{MenuItemID: "a", Quantity: 2, Price: decimal.NewFromInt(5)}},
		CustomerInfo: models.CustomerInfo{Name: "Ana", Phone: "5550100"},
		TotalAmount:  decimal.NewFromInt(11),
	})
	assert.NoError(t, err)
}

func TestMenuItem(t *testing.T) {
	assert.NoError(t, MenuItem(models.CreateMenuItemRequest{Name: "Soup", Category: "Starters", Price: decimal.RequireFromString("4.5")}))
	assert.Error(t, MenuItem(models.CreateMenuItemRequest{Name: "Soup", Category: "Starters"}))
	assert.Error(t, MenuItem(models.CreateMenuItemRequest{Price: decimal.NewFromInt(1)}))
}

func TestTable(t *testing.T) {
	assert.NoError(t, Table(models.CreateTableRequest{Number: "4", Seats: 2}))
	assert.Error(t, Table(models.CreateTableRequest{Number: "", Seats: 2}))
	assert.Error(t, Table(models.CreateTableRequest{Number: "4", Seats: 0}))
}

func TestProblemsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, Problems(errors.New("x")))
	assert.Nil(t, Problems(nil))
}
