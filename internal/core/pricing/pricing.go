// Package pricing holds the pure fee functions the cart derives its totals with.
//
// Every policy is a deterministic function of its arguments
// and carries no state between calls.
package pricing

const basisPointsDenominator = 10_000

// A ShippingPolicy maps a subtotal to the shipping fee, both in cents.
type ShippingPolicy func(subtotalCents int64) int64

// A TaxPolicy maps a subtotal to the tax amount, both in cents.
type TaxPolicy func(subtotalCents int64) int64

// A DiscountPolicy maps the active coupon code and subtotal to a discount in cents.
type DiscountPolicy func(code string, subtotalCents int64) int64

// ThresholdShipping charges flatCents below freeFromCents.
//
// An empty cart and any subtotal at or above freeFromCents ship for free.
func ThresholdShipping(freeFromCents, flatCents int64) ShippingPolicy {
	return func(subtotalCents int64) int64 {
		if subtotalCents <= 0 || subtotalCents >= freeFromCents {
			return 0
		}
		return flatCents
	}
}

// PercentTax charges basisPoints/10000 of the subtotal,
// rounded half-up to the nearest cent.
func PercentTax(basisPoints int64) TaxPolicy {
	return func(subtotalCents int64) int64 {
		if subtotalCents <= 0 || basisPoints <= 0 {
			return 0
		}
		return (subtotalCents*basisPoints + basisPointsDenominator/2) /
			basisPointsDenominator
	}
}

// NoDiscount is the coupon placeholder: every code is accepted
// and none of them discounts anything.
func NoDiscount(string, int64) int64 {
	return 0
}

// A Config describes the fee rules in configuration units.
type Config struct {
	FreeShippingThresholdCents int64 `mapstructure:"free_shipping_threshold_cents"`
	FlatShippingCents          int64 `mapstructure:"flat_shipping_cents"`
	TaxRateBasisPoints         int64 `mapstructure:"tax_rate_bps"`
}

// A Policy bundles the three fee functions the cart consumes.
type Policy struct {
	Shipping ShippingPolicy
	Tax      TaxPolicy
	Discount DiscountPolicy
}

func DefaultConfig() Config {
	return Config{
		FreeShippingThresholdCents: 10_000,
		FlatShippingCents:          999,
		TaxRateBasisPoints:         800,
	}
}

func New(c Config) Policy {
	return Policy{
		Shipping: ThresholdShipping(c.FreeShippingThresholdCents, c.FlatShippingCents),
		Tax:      PercentTax(c.TaxRateBasisPoints),
		Discount: NoDiscount,
	}
}

// A Quote is the fee breakdown for a bare subtotal.
type Quote struct {
	SubtotalCents int64
	ShippingCents int64
	TaxCents      int64
	TotalCents    int64
}

func (p Policy) Quote(subtotalCents int64) Quote {
	q := Quote{
		SubtotalCents: subtotalCents,
		ShippingCents: p.Shipping(subtotalCents),
		TaxCents:      p.Tax(subtotalCents),
	}
	q.TotalCents = max(0, q.SubtotalCents+q.ShippingCents+q.TaxCents)
	return q
}
