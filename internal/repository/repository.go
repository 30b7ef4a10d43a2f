package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/flexfit/storefront/internal/domain"
)

// RelatedLimit caps GetByCategory results.
const RelatedLimit = 4

// Stock levels written by SeedIfEmpty.
const (
	SeedStockInStock    = 10
	SeedStockOutOfStock = 0
)

// ProductRepository is the backend product store. Implementations must not
// leak transport details to callers.
type ProductRepository interface {
	// GetByID returns apperrors.ErrNotFound when no product has the ID.
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByCategory returns at most RelatedLimit products in category,
	// excluding excludeID.
	GetByCategory(ctx context.Context, category, excludeID string) ([]domain.Product, error)
	// SeedIfEmpty inserts products only when the backend holds none, and
	// reports whether it did.
	SeedIfEmpty(ctx context.Context, products []domain.Product) (bool, error)
}

// Row is the backend's product row. Nullable columns are pointers.
type Row struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Price       decimal.Decimal   `json:"price"`
	ImageURL    *string           `json:"image_url"`
	Description *string           `json:"description"`
	Stock       int               `json:"stock"`
	Featured    *bool             `json:"featured"`
	Rating      *float64          `json:"rating"`
	Reviews     *int              `json:"reviews"`
	Specs       map[string]string `json:"specs"`
}

// Product maps a row into a domain product. A product is in stock when its
// stock count is positive; missing optional columns take zero values.
func (r Row) Product() domain.Product {
	p := domain.Product{
		ID:       r.ID,
		Name:     r.Name,
		Category: r.Category,
		Price:    r.Price,
		InStock:  r.Stock > 0,
		Specs:    r.Specs,
	}
	if r.ImageURL != nil {
		p.Image = *r.ImageURL
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Featured != nil {
		p.Featured = *r.Featured
	}
	if r.Rating != nil {
		p.Rating = *r.Rating
	}
	if r.Reviews != nil {
		p.Reviews = *r.Reviews
	}
	return p
}

// RowFromProduct builds the row written when seeding.
func RowFromProduct(p domain.Product) Row {
	stock := SeedStockOutOfStock
	if p.InStock {
		stock = SeedStockInStock
	}
	specs := p.Specs
	if specs == nil {
		specs = map[string]string{}
	}
	return Row{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price,
		ImageURL:    &p.Image,
		Description: &p.Description,
		Stock:       stock,
		Featured:    &p.Featured,
		Rating:      &p.Rating,
		Reviews:     &p.Reviews,
		Specs:       specs,
	}
}
