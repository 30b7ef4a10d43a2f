package domain

import "github.com/shopspring/decimal"

// Product is a purchasable catalog entry. Products are never mutated after
// the catalog is loaded.
type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Price       decimal.Decimal   `json:"price"`
	Image       string            `json:"image"`
	Description string            `json:"description"`
	InStock     bool              `json:"in_stock"`
	Featured    bool              `json:"featured,omitempty"`
	Rating      float64           `json:"rating,omitempty"`
	Reviews     int               `json:"reviews,omitempty"`
	Specs       map[string]string `json:"specs,omitempty"`
}

// Clone returns a copy that shares no mutable state with p.
func (p Product) Clone() Product {
	if p.Specs != nil {
		specs := make(map[string]string, len(p.Specs))
		for k, v := range p.Specs {
			specs[k] = v
		}
		p.Specs = specs
	}
	return p
}

// CloneProducts copies a product slice element by element. A nil input
// yields an empty, non-nil slice.
func CloneProducts(products []Product) []Product {
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out
}
