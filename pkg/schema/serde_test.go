package schema_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/storefront/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSchemaIdentifier struct {
	mock.Mock
}

func (c *MockSchemaIdentifier) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (id int, err error) {
	args := c.Called(ctx, subject, avroSchemaText)
	return args.Int(0), args.Error(1)
}

func TestSerdeCartEventV1(t *testing.T) {
	subject := "cart-events-value"

	t.Run("NoOpts", func(t *testing.T) {
		_, err := schema.NewSerdeCartEventV1(t.Context())
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("OneOpt", func(t *testing.T) {
		_, err := schema.NewSerdeCartEventV1(
			t.Context(),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("EmptySubject", func(t *testing.T) {
		_, err := schema.NewSerdeCartEventV1(
			t.Context(),
			schema.SubjectOpt(""),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
	})

	t.Run("IdentifierError", func(t *testing.T) {
		errRegistry := errors.New("registry is unavailable")
		schemaIdentifier := new(MockSchemaIdentifier)
		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.CartEventSchemaTextV1,
		).Return(0, errRegistry)

		_, err := schema.NewSerdeCartEventV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, errRegistry)
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.CartEventSchemaTextV1,
		).Return(1, nil)

		serde, err := schema.NewSerdeCartEventV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.NoError(t, err)

		event1 := schema.CartEventV1{
			SessionID:     "testSessionID",
			Type:          "coupon_applied",
			ItemCount:     2,
			SubtotalCents: 2000,
			TotalCents:    2160,
			OccurredAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}

		encodedData, err := serde.Encode(event1)
		require.NoError(t, err)

		// confluent wire format: magic byte and 4-byte schema id
		require.Greater(t, len(encodedData), 5)
		assert.Equal(t, []byte{0, 0, 0, 0, 1}, encodedData[:5])

		var event2 schema.CartEventV1
		err = serde.Decode(encodedData, &event2)
		require.NoError(t, err)

		assert.Equal(t, event1.SessionID, event2.SessionID)
		assert.Equal(t, event1.Type, event2.Type)
		assert.Equal(t, event1.ProductID, event2.ProductID)
		assert.Equal(t, event1.ItemCount, event2.ItemCount)
		assert.Equal(t, event1.SubtotalCents, event2.SubtotalCents)
		assert.Equal(t, event1.TotalCents, event2.TotalCents)
		assert.True(t, event1.OccurredAt.Equal(event2.OccurredAt))
	})
}
