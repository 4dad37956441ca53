package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCoalesce(t *testing.T) {
	null := decimal.NullDecimal{}
	assert.True(t, d(80000).Equal(Coalesce(decimal.NewNullDecimal(d(80000)), decimal.NewNullDecimal(d(100000)))))
	assert.True(t, d(100000).Equal(Coalesce(null, decimal.NewNullDecimal(d(100000)))))
	assert.True(t, decimal.Zero.Equal(Coalesce(null, null)))
	// a present zero discount is not skipped
	assert.True(t, decimal.Zero.Equal(Coalesce(decimal.NewNullDecimal(decimal.Zero), decimal.NewNullDecimal(d(5)))))
}

func TestApplyPercent(t *testing.T) {
	tests := []struct {
		name         string
		subtotal     int64
		pct          string
		wantDiscount int64
		wantTotal    int64
	}{
		{"regular", 50000, "10", 5000, 45000},
		{"clamped above 100", 50000, "150", 50000, 0},
		{"exactly 100", 50000, "100", 50000, 0},
		{"negative is no discount", 50000, "-20", 0, 50000},
		{"zero subtotal", 0, "50", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discount, total := ApplyPercent(d(tt.subtotal), decimal.RequireFromString(tt.pct))
			assert.True(t, d(tt.wantDiscount).Equal(discount), "discount %s", discount)
			assert.True(t, d(tt.wantTotal).Equal(total), "total %s", total)
		})
	}
}

func TestApplyPercentBounds(t *testing.T) {
	subtotal := d(123457)
	for _, pct := range []string{"-1000", "-0.5", "0", "12.5", "33.333", "99.99", "100", "100.01", "1e6"} {
		_, total := ApplyPercent(subtotal, decimal.RequireFromString(pct))
		assert.False(t, total.IsNegative(), "pct %s", pct)
		assert.True(t, total.LessThanOrEqual(subtotal), "pct %s", pct)
	}
}

func TestFormatIDR(t *testing.T) {
	assert.Equal(t, "Rp 0", FormatIDR(decimal.Zero))
	assert.Equal(t, "Rp 999", FormatIDR(d(999)))
	assert.Equal(t, "Rp 240.000", FormatIDR(d(240000)))
	assert.Equal(t, "Rp 1.234.567", FormatIDR(d(1234567)))
	assert.Equal(t, "Rp 1.001", FormatIDR(decimal.RequireFromString("1000.5")))
	assert.Equal(t, "-Rp 5.000", FormatIDR(d(-5000)))
}
