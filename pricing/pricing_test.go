package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSummarize(t *testing.T) {
	tests := []struct {
		name                string
		subtotal            string
		tax                 Tax
		wantSub, wantTax, w string
	}{
		{"default rate", "20", FlatRate(DefaultRate), "20", "2", "22"},
		{"rounds half up", "10.05", FlatRate(DefaultRate), "10.05", "1.01", "11.06"},
		{"no tax", "7.333", NoTax, "7.33", "0", "7.33"},
		{"nil tax", "3", nil, "3", "0", "3"},
		{"zero", "0", FlatRate(DefaultRate), "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(d(tt.subtotal), tt.tax)
			assert.True(t, d(tt.wantSub).Equal(got.Subtotal), "subtotal %s", got.Subtotal)
			assert.True(t, d(tt.wantTax).Equal(got.Tax), "tax %s", got.Tax)
			assert.True(t, d(tt.w).Equal(got.Total), "total %s", got.Total)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$12.50", Format(d("12.5")))
	assert.Equal(t, "$0.00", Format(decimal.Zero))
	assert.Equal(t, "$3.14", Format(d("3.14159")))
}
