package domain

// MaxPriceCents bounds a catalog price, so price times
// [MaxLineQuantity] stays far below the int64 range.
const MaxPriceCents int64 = 100_000_000

type (
	// A Product is the catalog entry a cart line is captured from.
	Product struct {
		ProductID   string
		Title       string
		Slug        string
		Image       string
		Brand       Brand
		PriceCents  int64
		Description string
		Category    string
		Stock       int
	}

	Brand struct {
		Name string
	}
)
