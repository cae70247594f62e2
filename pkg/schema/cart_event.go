package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const CartEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.cart",
	"name": "cart_event",
	"fields" : [
		{"name": "session_id", "type": "string"},
		{"name": "type", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "item_count", "type": "int"},
		{"name": "subtotal_cents", "type": "long"},
		{"name": "total_cents", "type": "long"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type CartEventV1 struct {
	SessionID     string    `avro:"session_id"`
	Type          string    `avro:"type"`
	ProductID     string    `avro:"product_id"`
	ItemCount     int       `avro:"item_count"`
	SubtotalCents int64     `avro:"subtotal_cents"`
	TotalCents    int64     `avro:"total_cents"`
	OccurredAt    time.Time `avro:"occurred_at"`
}

func CartEventV1Avro() avro.Schema {
	return avro.MustParse(CartEventSchemaTextV1)
}
