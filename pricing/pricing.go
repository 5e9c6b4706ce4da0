// Package pricing computes what a cart costs at checkout.
package pricing

import (
	"github.com/shopspring/decimal"
)

// DefaultRate is the flat tax applied when nothing else is configured.
var DefaultRate = decimal.RequireFromString("0.10")

// Tax returns the tax owed on subtotal.
type Tax func(subtotal decimal.Decimal) decimal.Decimal

// FlatRate taxes every subtotal at rate.
func FlatRate(rate decimal.Decimal) Tax {
	return func(subtotal decimal.Decimal) decimal.Decimal {
		return subtotal.Mul(rate)
	}
}

// NoTax is used when the restaurant prices tax-inclusive.
func NoTax(decimal.Decimal) decimal.Decimal { return decimal.Zero }

type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Summarize rounds subtotal, tax and total to cents. Total is computed from the unrounded
// subtotal and tax so the rounding happens once.
func Summarize(subtotal decimal.Decimal, tax Tax) Summary {
	if tax == nil {
		tax = NoTax
	}
	t := tax(subtotal)
	return Summary{
		Subtotal: subtotal.Round(2),
		Tax:      t.Round(2),
		Total:    subtotal.Add(t).Round(2),
	}
}

// Format renders an amount for display, e.g. "$12.50".
func Format(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
