package port

import (
	"context"
	"errors"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidProduct = errors.New("invalid product")
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// A KVStorage is the durable key-value facility cart snapshots live in.
//
// Get returns [ErrNotFound] when the key holds no value.
type KVStorage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// A BackgroundKVStorage is a [KVStorage] that needs its own goroutines.
type BackgroundKVStorage interface {
	KVStorage
	runnerContextWg
	closer
}

type CartEventsProducer interface {
	ProduceCartEvent(context.Context, domain.CartEvent) error
}

type ProductsRepository interface {
	ListProducts(context.Context) ([]domain.Product, error)
	ReadProduct(ctx context.Context, productID string) (domain.Product, error)
	UpdateProduct(context.Context, domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type CartReader interface {
	Cart(ctx context.Context, sessionID string) (domain.CartState, error)
}

type CartEditor interface {
	AddItem(ctx context.Context, sessionID, productID string, quantity int) (domain.CartState, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (domain.CartState, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (domain.CartState, error)
	ClearCart(ctx context.Context, sessionID string) (domain.CartState, error)
	ToggleCart(ctx context.Context, sessionID string) (domain.CartState, error)
	ApplyCoupon(ctx context.Context, sessionID, code string) (domain.CartState, error)
	RemoveCoupon(ctx context.Context, sessionID string) (domain.CartState, error)
	EndSession(ctx context.Context, sessionID string) error
}

type CartService interface {
	CartReader
	CartEditor
}

type CatalogService interface {
	Products(context.Context) ([]domain.Product, error)
	Product(ctx context.Context, productID string) (domain.Product, error)
	UpdateProduct(context.Context, domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}
