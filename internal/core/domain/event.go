package domain

import "time"

type CartEventType string

const (
	CartItemAdded       CartEventType = "item_added"
	CartQuantityUpdated CartEventType = "quantity_updated"
	CartItemRemoved     CartEventType = "item_removed"
	CartCleared         CartEventType = "cart_cleared"
	CartCouponApplied   CartEventType = "coupon_applied"
	CartCouponRemoved   CartEventType = "coupon_removed"
)

// A CartEvent reports a cart mutation to the activity stream.
type CartEvent struct {
	SessionID     string
	Type          CartEventType
	ProductID     string
	ItemCount     int
	SubtotalCents int64
	TotalCents    int64
	OccurredAt    time.Time
}
