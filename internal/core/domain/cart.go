package domain

// MaxLineQuantity bounds the quantity of one cart line.
const MaxLineQuantity = 9_999

type (
	// A CartItem is one line of the cart.
	//
	// PriceCents and Product are captured when the line is created
	// and never follow later catalog changes.
	CartItem struct {
		ProductID  string
		Quantity   int
		PriceCents int64
		Product    ProductSnapshot
	}

	// A ProductSnapshot is the display data denormalized into a cart line.
	ProductSnapshot struct {
		Title     string
		Image     string
		Slug      string
		BrandName string
	}
)

// A CartSnapshot is the persisted part of the cart state.
type CartSnapshot struct {
	Items      []CartItem
	CouponCode string
}

// A CartTotals holds the values derived from items and coupon.
type CartTotals struct {
	SubtotalCents int64
	TaxCents      int64
	ShippingCents int64
	DiscountCents int64
	TotalCents    int64
	ItemCount     int
}

// A CartState is a read-only view of the cart.
type CartState struct {
	Items      []CartItem
	IsOpen     bool
	CouponCode string
	Totals     CartTotals
}

func NewProductSnapshot(p Product) ProductSnapshot {
	return ProductSnapshot{
		Title:     p.Title,
		Image:     p.Image,
		Slug:      p.Slug,
		BrandName: p.Brand.Name,
	}
}
