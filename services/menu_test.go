package services

import (
	"strings"
	"testing"

	"foodscan/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMenuQuery(t *testing.T) {
	yes := true
	lo := decimal.NewFromInt(5)
	hi := decimal.NewFromInt(20)

	tests := []struct {
		name     string
		f        models.MenuFilter
		contains []string
		args     int
	}{
		{"no filter", models.MenuFilter{}, []string{"restaurant_id = $1", "ORDER BY category, name, id"}, 1},
		{"all category ignored", models.MenuFilter{Category: "All"}, []string{"ORDER BY category"}, 1},
		{"category", models.MenuFilter{Category: "Mains"}, []string{"category = $2"}, 2},
		{"search", models.MenuFilter{Search: " soup "}, []string{"name ILIKE $2 OR description ILIKE $2"}, 2},
		{"everything", models.MenuFilter{Category: "Mains", Search: "x", Available: &yes, MinPrice: &lo, MaxPrice: &hi, SortField: models.SortByPrice, SortDesc: true},
			[]string{"category = $2", "ILIKE $3", "available = $4", "price >= $5", "price <= $6", "ORDER BY price DESC, id"}, 6},
		{"unknown sort", models.MenuFilter{SortField: "price; DROP TABLE"}, []string{"ORDER BY category, name, id"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := menuQuery("r1", tt.f)
			for _, c := range tt.contains {
				assert.Contains(t, sql, c)
			}
			assert.Len(t, args, tt.args)
			assert.False(t, strings.Contains(sql, "DROP"))
		})
	}
}

func TestMenuQuerySearchArg(t *testing.T) {
	_, args := menuQuery("r1", models.MenuFilter{Search: " soup "})
	assert.Equal(t, "%soup%", args[1])
}
