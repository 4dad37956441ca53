// Package money provides rupiah amount arithmetic and display formatting
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RoundHalfUp rounds value to the specified decimals using HALF-UP mode
func RoundHalfUp(value decimal.Decimal, decimals int32) decimal.Decimal {
	return value.Round(decimals)
}

// Coalesce returns the first valid value, or zero. It mirrors the
// `price_discount ?? price ?? 0` rule: a present zero wins over a later value.
func Coalesce(values ...decimal.NullDecimal) decimal.Decimal {
	for _, v := range values {
		if v.Valid {
			return v.Decimal
		}
	}
	return decimal.Zero
}

// ClampPercent limits a percentage to [0, 100].
func ClampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// ApplyPercent returns the discount and the discounted total for subtotal.
// The percentage is clamped so 0 <= total <= subtotal for any input.
func ApplyPercent(subtotal, pct decimal.Decimal) (discount, total decimal.Decimal) {
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}
	discount = ClampPercent(pct).Mul(subtotal).Div(hundred)
	total = subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return discount, total
}

// FormatIDR renders an amount the way the storefront displays prices,
// e.g. 240000 -> "Rp 240.000". Fractions are rounded half-up to whole rupiah.
func FormatIDR(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	digits := RoundHalfUp(amount.Abs(), 0).StringFixed(0)

	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}

	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}
