package httphandler

import "github.com/niksmo/storefront/internal/core/domain"

type (
	Product struct {
		ProductID   string `json:"product_id"`
		Title       string `json:"title"`
		Slug        string `json:"slug"`
		Image       string `json:"image"`
		Brand       string `json:"brand"`
		PriceCents  int64  `json:"price_cents"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Stock       int    `json:"stock"`
	}

	CartProduct struct {
		Title     string `json:"title"`
		Image     string `json:"image"`
		Slug      string `json:"slug"`
		BrandName string `json:"brand_name"`
	}

	CartItem struct {
		ProductID      string      `json:"product_id"`
		Quantity       int         `json:"quantity"`
		PriceCents     int64       `json:"price_cents"`
		LineTotalCents int64       `json:"line_total_cents"`
		Product        CartProduct `json:"product"`
	}

	CartTotals struct {
		SubtotalCents int64 `json:"subtotal_cents"`
		TaxCents      int64 `json:"tax_cents"`
		ShippingCents int64 `json:"shipping_cents"`
		DiscountCents int64 `json:"discount_cents"`
		TotalCents    int64 `json:"total_cents"`
		ItemCount     int   `json:"item_count"`
	}

	Cart struct {
		Items      []CartItem `json:"items"`
		IsOpen     bool       `json:"is_open"`
		CouponCode string     `json:"coupon_code"`
		Totals     CartTotals `json:"totals"`
	}
)

type (
	AddItemRequest struct {
		ProductID string `json:"product_id"`
		Quantity  *int   `json:"quantity"`
	}

	UpdateQuantityRequest struct {
		Quantity *int `json:"quantity"`
	}

	CouponRequest struct {
		Code string `json:"code"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}
)

func productFromDomain(p domain.Product) Product {
	return Product{
		ProductID:   p.ProductID,
		Title:       p.Title,
		Slug:        p.Slug,
		Image:       p.Image,
		Brand:       p.Brand.Name,
		PriceCents:  p.PriceCents,
		Description: p.Description,
		Category:    p.Category,
		Stock:       p.Stock,
	}
}

func (p Product) toDomain() domain.Product {
	return domain.Product{
		ProductID:   p.ProductID,
		Title:       p.Title,
		Slug:        p.Slug,
		Image:       p.Image,
		Brand:       domain.Brand{Name: p.Brand},
		PriceCents:  p.PriceCents,
		Description: p.Description,
		Category:    p.Category,
		Stock:       p.Stock,
	}
}

func cartFromDomain(s domain.CartState) Cart {
	c := Cart{
		Items:      make([]CartItem, len(s.Items)),
		IsOpen:     s.IsOpen,
		CouponCode: s.CouponCode,
		Totals: CartTotals{
			SubtotalCents: s.Totals.SubtotalCents,
			TaxCents:      s.Totals.TaxCents,
			ShippingCents: s.Totals.ShippingCents,
			DiscountCents: s.Totals.DiscountCents,
			TotalCents:    s.Totals.TotalCents,
			ItemCount:     s.Totals.ItemCount,
		},
	}
	for i, it := range s.Items {
		c.Items[i] = CartItem{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			PriceCents:     it.PriceCents,
			LineTotalCents: it.PriceCents * int64(it.Quantity),
			Product: CartProduct{
				Title:     it.Product.Title,
				Image:     it.Product.Image,
				Slug:      it.Product.Slug,
				BrandName: it.Product.BrandName,
			},
		}
	}
	return c
}
