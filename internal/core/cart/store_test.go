package cart_test

import (
	"math"
	"testing"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPersister struct {
	mock.Mock
}

func (m *MockPersister) Persist(s domain.CartSnapshot) {
	m.Called(s)
}

type recorder struct {
	snapshots []domain.CartSnapshot
}

func (r *recorder) Persist(s domain.CartSnapshot) {
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) last() domain.CartSnapshot {
	return r.snapshots[len(r.snapshots)-1]
}

func testPolicy() pricing.Policy {
	return pricing.New(pricing.Config{
		FreeShippingThresholdCents: 10_000,
		FlatShippingCents:          500,
		TaxRateBasisPoints:         1000,
	})
}

func product(id string, price int64) domain.Product {
	return domain.Product{
		ProductID:  id,
		Title:      "title " + id,
		Slug:       "slug-" + id,
		Image:      "/img/" + id + ".png",
		Brand:      domain.Brand{Name: "brand " + id},
		PriceCents: price,
	}
}

func assertConsistent(t *testing.T, s *cart.Store) {
	t.Helper()

	var subtotal int64
	var count int
	for _, it := range s.Items() {
		subtotal += it.PriceCents * int64(it.Quantity)
		count += it.Quantity
	}

	tt := s.Totals()
	assert.Equal(t, subtotal, tt.SubtotalCents)
	assert.Equal(t, count, tt.ItemCount)
	assert.Equal(t,
		max(0, tt.SubtotalCents+tt.TaxCents+tt.ShippingCents-tt.DiscountCents),
		tt.TotalCents,
	)
}

func TestNewStoreIsEmpty(t *testing.T) {
	s := cart.New(cart.WithPolicy(testPolicy()))

	assert.Empty(t, s.Items())
	assert.False(t, s.IsOpen())
	assert.Empty(t, s.CouponCode())
	assert.Equal(t, domain.CartTotals{}, s.Totals())
}

func TestStoreAddItem(t *testing.T) {
	t.Run("MergesSameProduct", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))

		require.NoError(t, s.AddItem(product("p1", 1000), 1))
		require.NoError(t, s.AddItem(product("p1", 1000), 2))

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, "p1", items[0].ProductID)
		assert.Equal(t, 3, items[0].Quantity)
		assert.Equal(t, int64(1000), items[0].PriceCents)
		assert.Equal(t, int64(3000), s.Totals().SubtotalCents)
		assertConsistent(t, s)
	})

	t.Run("KeepsFirstCapturedPrice", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))

		require.NoError(t, s.AddItem(product("p1", 1000), 1))
		require.NoError(t, s.AddItem(product("p1", 1500), 1))
		require.NoError(t, s.AddItem(product("p1", 200), 4))

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 6, items[0].Quantity)
		assert.Equal(t, int64(1000), items[0].PriceCents)
		assert.Equal(t, int64(6000), s.Totals().SubtotalCents)
	})

	t.Run("CapturesProductSnapshot", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))
		p := product("p1", 1000)

		require.NoError(t, s.AddItem(p, 1))

		assert.Equal(t, domain.ProductSnapshot{
			Title:     p.Title,
			Image:     p.Image,
			Slug:      p.Slug,
			BrandName: p.Brand.Name,
		}, s.Items()[0].Product)
	})

	t.Run("MissingPriceDefaultsToZero", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))

		require.NoError(t, s.AddItem(domain.Product{ProductID: "free"}, 2))

		assert.Equal(t, int64(0), s.Items()[0].PriceCents)
		assert.Equal(t, domain.CartTotals{ItemCount: 2}, s.Totals())
	})

	t.Run("KeepsInsertionOrder", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))

		require.NoError(t, s.AddItem(product("b", 100), 1))
		require.NoError(t, s.AddItem(product("a", 100), 1))
		require.NoError(t, s.AddItem(product("b", 100), 1))

		items := s.Items()
		require.Len(t, items, 2)
		assert.Equal(t, "b", items[0].ProductID)
		assert.Equal(t, "a", items[1].ProductID)
	})

	t.Run("RejectsNonPositiveQuantity", func(t *testing.T) {
		rec := new(recorder)
		s := cart.New(cart.WithPolicy(testPolicy()), cart.WithPersister(rec))

		for _, qty := range []int{0, -1, -10} {
			err := s.AddItem(product("p1", 1000), qty)
			require.Error(t, err)
			assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
		}

		assert.Empty(t, s.Items())
		assert.Empty(t, rec.snapshots)
	})

	t.Run("RejectsMergeAboveLimit", func(t *testing.T) {
		rec := new(recorder)
		s := cart.New(cart.WithPolicy(testPolicy()), cart.WithPersister(rec))
		require.NoError(t, s.AddItem(product("p1", 1000), domain.MaxLineQuantity))
		before := s.State()

		err := s.AddItem(product("p1", 1000), 1)
		assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

		assert.Equal(t, before, s.State())
		assert.Equal(t, domain.MaxLineQuantity, s.Items()[0].Quantity)
		assert.Len(t, rec.snapshots, 1)
	})

	t.Run("RejectsHugeQuantity", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))
		require.NoError(t, s.AddItem(product("p1", 1000), 1))

		err := s.AddItem(product("p1", 1000), math.MaxInt)
		assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
		assert.Equal(t, 1, s.Items()[0].Quantity)
		assert.Equal(t, 1, s.Totals().ItemCount)
	})

	t.Run("RejectsPriceAboveLimit", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))

		err := s.AddItem(product("p1", domain.MaxPriceCents+1), 1)
		assert.ErrorIs(t, err, cart.ErrInvalidProduct)
		assert.Empty(t, s.Items())
	})

	t.Run("RejectsEmptyProductID", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))

		err := s.AddItem(product("", 1000), 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, cart.ErrInvalidProduct)
		assert.Empty(t, s.Items())
	})
}

func TestStoreUpdateQuantity(t *testing.T) {
	t.Run("SetsQuantity", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))
		require.NoError(t, s.AddItem(product("p1", 250), 3))

		matched, err := s.UpdateQuantity("p1", 7)
		require.NoError(t, err)
		assert.True(t, matched)

		assert.Equal(t, 7, s.Items()[0].Quantity)
		assert.Equal(t, int64(1750), s.Totals().SubtotalCents)
		assertConsistent(t, s)
	})

	t.Run("ZeroRemoves", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))
		require.NoError(t, s.AddItem(product("p1", 250), 3))
		require.NoError(t, s.AddItem(product("p2", 100), 1))

		s.UpdateQuantity("p1", 0)

		require.Len(t, s.Items(), 1)
		assert.Equal(t, "p2", s.Items()[0].ProductID)
		assertConsistent(t, s)
	})

	t.Run("NegativeRemoves", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))
		require.NoError(t, s.AddItem(product("p1", 250), 3))

		s.UpdateQuantity("p1", -4)

		assert.Empty(t, s.Items())
		assert.Equal(t, domain.CartTotals{}, s.Totals())
	})

	t.Run("UnknownProductIsNoop", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))
		require.NoError(t, s.AddItem(product("p1", 250), 3))
		before := s.State()

		matched, err := s.UpdateQuantity("missing", 5)
		require.NoError(t, err)
		assert.False(t, matched)

		assert.Equal(t, before, s.State())
	})

	t.Run("RejectsQuantityAboveLimit", func(t *testing.T) {
		rec := new(recorder)
		s := cart.New(cart.WithPolicy(testPolicy()), cart.WithPersister(rec))
		require.NoError(t, s.AddItem(product("p1", 1000), 1))
		before := s.State()

		for _, qty := range []int{domain.MaxLineQuantity + 1, 10_000_000_000_000_000} {
			matched, err := s.UpdateQuantity("p1", qty)
			assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
			assert.False(t, matched)
		}

		assert.Equal(t, before, s.State())
		assert.Len(t, rec.snapshots, 1)
	})

	t.Run("AcceptsLimit", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))
		require.NoError(t, s.AddItem(product("p1", domain.MaxPriceCents), 1))

		_, err := s.UpdateQuantity("p1", domain.MaxLineQuantity)
		require.NoError(t, err)

		assert.Equal(t, domain.MaxPriceCents*domain.MaxLineQuantity, s.Totals().SubtotalCents)
		assert.Positive(t, s.Totals().TotalCents)
		assertConsistent(t, s)
	})
}

func TestStoreRemoveItem(t *testing.T) {
	t.Run("AddThenRemoveEqualsEmpty", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))
		initial := s.State()

		require.NoError(t, s.AddItem(product("p2", 5000), 1))
		s.RemoveItem("p2")

		assert.Empty(t, s.Items())
		assert.Equal(t, domain.CartTotals{}, s.Totals())
		assert.Equal(t, initial.Totals, s.State().Totals)
		assert.Equal(t, initial.CouponCode, s.State().CouponCode)
	})

	t.Run("UnknownProductIsNoop", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))
		require.NoError(t, s.AddItem(product("p1", 250), 1))

		assert.False(t, s.RemoveItem("missing"))

		assert.Len(t, s.Items(), 1)
		assertConsistent(t, s)
	})
}

func TestStoreClearCart(t *testing.T) {
	s := cart.New(cart.WithPolicy(testPolicy()))
	require.NoError(t, s.AddItem(product("p1", 2500), 2))
	require.NoError(t, s.AddItem(product("p2", 700), 1))
	s.ApplyCoupon("WELCOME")

	s.ClearCart()

	assert.Empty(t, s.Items())
	assert.Empty(t, s.CouponCode())
	assert.Equal(t, domain.CartTotals{}, s.Totals())
}

func TestStoreToggleCart(t *testing.T) {
	rec := new(recorder)
	s := cart.New(cart.WithPolicy(testPolicy()), cart.WithPersister(rec))
	require.NoError(t, s.AddItem(product("p1", 2500), 1))
	totals := s.Totals()
	nWrites := len(rec.snapshots)

	s.ToggleCart()
	assert.True(t, s.IsOpen())
	s.ToggleCart()
	assert.False(t, s.IsOpen())

	assert.Equal(t, totals, s.Totals())
	assert.Len(t, rec.snapshots, nWrites)
}

func TestStoreCoupon(t *testing.T) {
	t.Run("PlaceholderDiscountIsZero", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))
		require.NoError(t, s.AddItem(product("p1", 2000), 1))
		before := s.Totals()

		s.ApplyCoupon("SAVE10")

		assert.Equal(t, "SAVE10", s.CouponCode())
		assert.Equal(t, int64(0), s.Totals().DiscountCents)
		assert.Equal(t, before, s.Totals())
	})

	t.Run("ReplacesActiveCoupon", func(t *testing.T) {
		s := cart.New(cart.WithPolicy(testPolicy()))

		s.ApplyCoupon("FIRST")
		s.ApplyCoupon("SECOND")

		assert.Equal(t, "SECOND", s.CouponCode())
	})

	t.Run("DiscountHook", func(t *testing.T) {
		policy := testPolicy()
		policy.Discount = func(code string, subtotal int64) int64 {
			if code == "HALF" {
				return subtotal / 2
			}
			return 0
		}
		s := cart.New(cart.WithPolicy(policy))
		require.NoError(t, s.AddItem(product("p1", 2000), 1))

		s.ApplyCoupon("HALF")
		assert.Equal(t, int64(1000), s.Totals().DiscountCents)
		assertConsistent(t, s)

		s.RemoveCoupon()
		assert.Empty(t, s.CouponCode())
		assert.Equal(t, int64(0), s.Totals().DiscountCents)
		assertConsistent(t, s)
	})

	t.Run("TotalIsFlooredAtZero", func(t *testing.T) {
		policy := testPolicy()
		policy.Discount = func(string, int64) int64 { return 1_000_000 }
		s := cart.New(cart.WithPolicy(policy))
		require.NoError(t, s.AddItem(product("p1", 2000), 1))

		s.ApplyCoupon("HUGE")

		assert.Equal(t, int64(0), s.Totals().TotalCents)
	})
}

func TestStoreDerivedTotals(t *testing.T) {
	s := cart.New(cart.WithPolicy(testPolicy()))

	require.NoError(t, s.AddItem(product("p1", 1000), 2))
	assert.Equal(t, domain.CartTotals{
		SubtotalCents: 2000,
		TaxCents:      200,
		ShippingCents: 500,
		TotalCents:    2700,
		ItemCount:     2,
	}, s.Totals())

	require.NoError(t, s.AddItem(product("p2", 4000), 2))
	assert.Equal(t, domain.CartTotals{
		SubtotalCents: 10_000,
		TaxCents:      1000,
		ShippingCents: 0,
		TotalCents:    11_000,
		ItemCount:     4,
	}, s.Totals())
}

func TestStorePersistsAfterEveryMutation(t *testing.T) {
	p := new(MockPersister)
	p.On("Persist", mock.Anything).Return()

	s := cart.New(cart.WithPolicy(testPolicy()), cart.WithPersister(p))
	p.AssertNotCalled(t, "Persist", mock.Anything)

	require.NoError(t, s.AddItem(product("p1", 1000), 1))
	s.UpdateQuantity("p1", 2)
	s.ApplyCoupon("C")
	s.RemoveCoupon()
	s.RemoveItem("p1")
	s.ClearCart()

	p.AssertNumberOfCalls(t, "Persist", 6)
}

func TestStoreSnapshotExcludesDerivedState(t *testing.T) {
	rec := new(recorder)
	s := cart.New(cart.WithPolicy(testPolicy()), cart.WithPersister(rec))

	require.NoError(t, s.AddItem(product("p1", 1000), 2))
	s.ToggleCart()
	s.ApplyCoupon("WELCOME")

	snap := rec.last()
	assert.Equal(t, "WELCOME", snap.CouponCode)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, s.Items(), snap.Items)
}

func TestStoreItemsAreCopies(t *testing.T) {
	s := cart.New(cart.WithPolicy(testPolicy()))
	require.NoError(t, s.AddItem(product("p1", 1000), 1))

	items := s.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, s.Items()[0].Quantity)
	assertConsistent(t, s)
}

func TestStoreWithSnapshot(t *testing.T) {
	rec := new(recorder)
	snap := domain.CartSnapshot{
		Items: []domain.CartItem{
			{ProductID: "p1", Quantity: 2, PriceCents: 1500},
			{ProductID: "p2", Quantity: 1, PriceCents: 250},
		},
		CouponCode: "BACK",
	}

	s := cart.New(
		cart.WithPolicy(testPolicy()),
		cart.WithSnapshot(snap),
		cart.WithPersister(rec),
	)

	assert.Equal(t, snap.Items, s.Items())
	assert.Equal(t, "BACK", s.CouponCode())
	assert.False(t, s.IsOpen())
	assert.Equal(t, int64(3250), s.Totals().SubtotalCents)
	assert.Equal(t, 3, s.Totals().ItemCount)
	assertConsistent(t, s)
	assert.Empty(t, rec.snapshots)
}

func TestStoreNilPolicyFieldsFallBack(t *testing.T) {
	s := cart.New(cart.WithPolicy(pricing.Policy{}))

	require.NoError(t, s.AddItem(product("p1", 1000), 1))
	s.ApplyCoupon("ANY")

	assert.Equal(t, int64(0), s.Totals().DiscountCents)
	assertConsistent(t, s)
}
