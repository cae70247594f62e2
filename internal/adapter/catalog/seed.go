package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/niksmo/storefront/internal/core/domain"
	"gopkg.in/yaml.v3"
)

type (
	seedFile struct {
		Products []seedProduct `yaml:"products"`
	}

	seedProduct struct {
		ProductID   string `yaml:"product_id"`
		Title       string `yaml:"title"`
		Slug        string `yaml:"slug"`
		Image       string `yaml:"image"`
		Brand       string `yaml:"brand"`
		PriceCents  int64  `yaml:"price_cents"`
		Description string `yaml:"description"`
		Category    string `yaml:"category"`
		Stock       int    `yaml:"stock"`
	}
)

// LoadSeed reads the catalog products from the YAML file at path.
func LoadSeed(path string) ([]domain.Product, error) {
	const op = "catalog.LoadSeed"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	ps, err := ParseSeed(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

// ParseSeed decodes catalog products, rejecting unknown fields.
func ParseSeed(r io.Reader) ([]domain.Product, error) {
	const op = "catalog.ParseSeed"

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sf seedFile
	if err := dec.Decode(&sf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps := make([]domain.Product, len(sf.Products))
	for i, sp := range sf.Products {
		ps[i] = domain.Product{
			ProductID:   sp.ProductID,
			Title:       sp.Title,
			Slug:        sp.Slug,
			Image:       sp.Image,
			Brand:       domain.Brand{Name: sp.Brand},
			PriceCents:  sp.PriceCents,
			Description: sp.Description,
			Category:    sp.Category,
			Stock:       sp.Stock,
		}
	}
	return ps, nil
}
