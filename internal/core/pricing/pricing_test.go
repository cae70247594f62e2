package pricing_test

import (
	"testing"

	"github.com/niksmo/storefront/internal/core/pricing"
	"github.com/stretchr/testify/assert"
)

func TestThresholdShipping(t *testing.T) {
	shipping := pricing.ThresholdShipping(5000, 500)

	tests := []struct {
		name     string
		subtotal int64
		want     int64
	}{
		{"EmptyCart", 0, 0},
		{"Negative", -100, 0},
		{"BelowThreshold", 4999, 500},
		{"AtThreshold", 5000, 0},
		{"AboveThreshold", 12000, 0},
		{"OneCent", 1, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shipping(tt.subtotal))
		})
	}
}

func TestPercentTax(t *testing.T) {
	tax := pricing.PercentTax(800)

	tests := []struct {
		name     string
		subtotal int64
		want     int64
	}{
		{"Zero", 0, 0},
		{"Negative", -1000, 0},
		{"Exact", 1000, 80},
		{"RoundDown", 1006, 80},
		{"RoundUp", 1019, 82},
		{"SmallAmount", 6, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tax(tt.subtotal))
		})
	}

	t.Run("HalfCentRoundsUp", func(t *testing.T) {
		assert.Equal(t, int64(1), pricing.PercentTax(500)(10))
	})

	t.Run("ZeroRate", func(t *testing.T) {
		assert.Equal(t, int64(0), pricing.PercentTax(0)(12345))
	})
}

func TestPoliciesAreDeterministic(t *testing.T) {
	p := pricing.New(pricing.DefaultConfig())

	for _, subtotal := range []int64{0, 1, 999, 9_999, 10_000, 123_456} {
		first := p.Quote(subtotal)
		for range 3 {
			assert.Equal(t, first, p.Quote(subtotal))
		}
	}
}

func TestNoDiscount(t *testing.T) {
	assert.Equal(t, int64(0), pricing.NoDiscount("SAVE10", 10_000))
	assert.Equal(t, int64(0), pricing.NoDiscount("", 0))
}

func TestPolicyQuote(t *testing.T) {
	p := pricing.New(pricing.Config{
		FreeShippingThresholdCents: 10_000,
		FlatShippingCents:          999,
		TaxRateBasisPoints:         800,
	})

	t.Run("BelowThreshold", func(t *testing.T) {
		q := p.Quote(5000)
		assert.Equal(t, pricing.Quote{
			SubtotalCents: 5000,
			ShippingCents: 999,
			TaxCents:      400,
			TotalCents:    6399,
		}, q)
	})

	t.Run("FreeShipping", func(t *testing.T) {
		q := p.Quote(10_000)
		assert.Equal(t, int64(0), q.ShippingCents)
		assert.Equal(t, int64(800), q.TaxCents)
		assert.Equal(t, int64(10_800), q.TotalCents)
	})
}
