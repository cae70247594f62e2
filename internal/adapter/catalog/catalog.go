// Package catalog is the in-memory product catalog the cart looks products up in.
package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var ErrInvalidProduct = port.ErrInvalidProduct

var _ port.ProductsRepository = (*Repository)(nil)

type Repository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewRepository returns a repository holding the seed products.
func NewRepository(seed []domain.Product) (*Repository, error) {
	const op = "catalog.NewRepository"

	r := &Repository{products: make(map[string]domain.Product, len(seed))}
	for _, p := range seed {
		if err := Validate(p); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if _, ok := r.products[p.ProductID]; ok {
			return nil, fmt.Errorf(
				"%s: %w: duplicate id %q", op, ErrInvalidProduct, p.ProductID,
			)
		}
		r.products[p.ProductID] = p
	}
	return r, nil
}

// Validate reports whether p can be stored in the catalog.
func Validate(p domain.Product) error {
	switch {
	case strings.TrimSpace(p.ProductID) == "":
		return fmt.Errorf("%w: empty id", ErrInvalidProduct)
	case strings.TrimSpace(p.Title) == "":
		return fmt.Errorf("%w: empty title", ErrInvalidProduct)
	case p.PriceCents < 0:
		return fmt.Errorf("%w: negative price", ErrInvalidProduct)
	case p.PriceCents > domain.MaxPriceCents:
		return fmt.Errorf("%w: price above %d", ErrInvalidProduct, domain.MaxPriceCents)
	case p.Stock < 0:
		return fmt.Errorf("%w: negative stock", ErrInvalidProduct)
	}
	return nil
}

// ListProducts returns every product ordered by id.
func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "Repository.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ps := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		ps = append(ps, p)
	}
	slices.SortFunc(ps, func(a, b domain.Product) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return ps, nil
}

func (r *Repository) ReadProduct(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "Repository.ReadProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[productID]
	if !ok {
		return domain.Product{}, fmt.Errorf("%s: %w", op, port.ErrNotFound)
	}
	return p, nil
}

// UpdateProduct stores p under its id, replacing the previous version.
func (r *Repository) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "Repository.UpdateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := Validate(p); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ProductID] = p
	return p, nil
}

func (r *Repository) DeleteProduct(ctx context.Context, productID string) error {
	const op = "Repository.DeleteProduct"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[productID]; !ok {
		return fmt.Errorf("%s: %w", op, port.ErrNotFound)
	}
	delete(r.products, productID)
	return nil
}
