// Package cart implements the per-session cart state container.
//
// A [Store] owns the cart lines and keeps the derived totals consistent
// with them: every mutating method recomputes the totals and hands the
// persisted part of the state to the [Persister] before returning.
// A Store is not safe for concurrent use.
package cart

import (
	"errors"
	"fmt"
	"slices"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/pricing"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 9999")
	ErrInvalidProduct  = errors.New("invalid product")
)

func validQuantity(q int) bool {
	return q >= 1 && q <= domain.MaxLineQuantity
}

func validPrice(c int64) bool {
	return c >= 0 && c <= domain.MaxPriceCents
}

// A Persister receives the snapshot written after every mutation.
//
// Persist must not panic and has no way to report failure to the store.
type Persister interface {
	Persist(domain.CartSnapshot)
}

type PersisterFunc func(domain.CartSnapshot)

func (f PersisterFunc) Persist(s domain.CartSnapshot) {
	f(s)
}

type nopPersister struct{}

func (nopPersister) Persist(domain.CartSnapshot) {}

type Opt func(*Store)

func WithPolicy(p pricing.Policy) Opt {
	return func(s *Store) {
		s.policy = p
	}
}

func WithPersister(p Persister) Opt {
	return func(s *Store) {
		if p != nil {
			s.persister = p
		}
	}
}

// WithSnapshot restores items and coupon from a previously persisted snapshot.
//
// The snapshot is not written back.
func WithSnapshot(snap domain.CartSnapshot) Opt {
	return func(s *Store) {
		s.items = slices.Clone(snap.Items)
		s.couponCode = snap.CouponCode
	}
}

type Store struct {
	items      []domain.CartItem
	isOpen     bool
	couponCode string
	totals     domain.CartTotals

	policy    pricing.Policy
	persister Persister
}

func New(opts ...Opt) *Store {
	s := &Store{
		policy:    pricing.New(pricing.DefaultConfig()),
		persister: nopPersister{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.normalizePolicy()
	s.recompute()
	return s
}

func (s *Store) normalizePolicy() {
	defaults := pricing.New(pricing.DefaultConfig())
	if s.policy.Shipping == nil {
		s.policy.Shipping = defaults.Shipping
	}
	if s.policy.Tax == nil {
		s.policy.Tax = defaults.Tax
	}
	if s.policy.Discount == nil {
		s.policy.Discount = pricing.NoDiscount
	}
}

// AddItem puts quantity units of p into the cart.
//
// An existing line for the same product keeps its captured price
// and only grows in quantity. A line may not grow past
// [domain.MaxLineQuantity]; the cart is left untouched then.
func (s *Store) AddItem(p domain.Product, quantity int) error {
	const op = "Store.AddItem"

	if p.ProductID == "" {
		return fmt.Errorf("%s: %w: empty id", op, ErrInvalidProduct)
	}
	if !validPrice(p.PriceCents) {
		return fmt.Errorf("%s: %w: price out of range", op, ErrInvalidProduct)
	}
	if !validQuantity(quantity) {
		return fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}

	if i := s.indexOf(p.ProductID); i >= 0 {
		merged := s.items[i].Quantity + quantity
		if !validQuantity(merged) {
			return fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
		}
		s.items[i].Quantity = merged
	} else {
		s.items = append(s.items, domain.CartItem{
			ProductID:  p.ProductID,
			Quantity:   quantity,
			PriceCents: p.PriceCents,
			Product:    domain.NewProductSnapshot(p),
		})
	}

	s.commit()
	return nil
}

// UpdateQuantity sets the quantity of the line for productID and
// reports whether the cart holds such a line.
//
// A quantity of zero or less removes the line. A quantity above
// [domain.MaxLineQuantity] is rejected and the cart is left untouched.
func (s *Store) UpdateQuantity(productID string, quantity int) (bool, error) {
	const op = "Store.UpdateQuantity"

	if quantity <= 0 {
		return s.RemoveItem(productID), nil
	}
	if !validQuantity(quantity) {
		return false, fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}

	i := s.indexOf(productID)
	if i >= 0 {
		s.items[i].Quantity = quantity
	}
	s.commit()
	return i >= 0, nil
}

// RemoveItem drops the line for productID and reports whether it existed.
func (s *Store) RemoveItem(productID string) bool {
	i := s.indexOf(productID)
	if i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	s.commit()
	return i >= 0
}

func (s *Store) ClearCart() {
	s.items = nil
	s.couponCode = ""
	s.commit()
}

func (s *Store) ToggleCart() {
	s.isOpen = !s.isOpen
}

// ApplyCoupon replaces the active coupon with code.
func (s *Store) ApplyCoupon(code string) {
	s.couponCode = code
	s.commit()
}

func (s *Store) RemoveCoupon() {
	s.couponCode = ""
	s.commit()
}

func (s *Store) Items() []domain.CartItem {
	return slices.Clone(s.items)
}

func (s *Store) IsOpen() bool {
	return s.isOpen
}

func (s *Store) CouponCode() string {
	return s.couponCode
}

func (s *Store) Totals() domain.CartTotals {
	return s.totals
}

func (s *Store) State() domain.CartState {
	return domain.CartState{
		Items:      s.Items(),
		IsOpen:     s.isOpen,
		CouponCode: s.couponCode,
		Totals:     s.totals,
	}
}

func (s *Store) Snapshot() domain.CartSnapshot {
	return domain.CartSnapshot{
		Items:      s.Items(),
		CouponCode: s.couponCode,
	}
}

func (s *Store) indexOf(productID string) int {
	return slices.IndexFunc(s.items, func(it domain.CartItem) bool {
		return it.ProductID == productID
	})
}

func (s *Store) commit() {
	s.recompute()
	s.persister.Persist(s.Snapshot())
}

func (s *Store) recompute() {
	var t domain.CartTotals
	for _, it := range s.items {
		t.SubtotalCents += it.PriceCents * int64(it.Quantity)
		t.ItemCount += it.Quantity
	}

	t.ShippingCents = s.policy.Shipping(t.SubtotalCents)
	t.TaxCents = s.policy.Tax(t.SubtotalCents)
	if s.couponCode != "" {
		t.DiscountCents = s.policy.Discount(s.couponCode, t.SubtotalCents)
	}

	t.TotalCents = max(0,
		t.SubtotalCents+t.TaxCents+t.ShippingCents-t.DiscountCents,
	)
	s.totals = t
}
