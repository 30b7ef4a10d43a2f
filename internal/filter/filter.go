// Package filter derives the visible product list from the active criteria.
package filter

import "github.com/flexfit/storefront/internal/domain"

// Apply keeps the products that satisfy every constrained field of c, in
// their original order. Criteria with no constrained field return a copy of
// the input. Apply does not modify products.
func Apply(products []domain.Product, c domain.Criteria) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if Matches(p, c) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Matches reports whether p satisfies all constraints in c. Price bounds are
// inclusive; an empty category constrains nothing.
func Matches(p domain.Product, c domain.Criteria) bool {
	if c.Category != nil && *c.Category != "" && p.Category != *c.Category {
		return false
	}
	if c.MinPrice != nil && p.Price.LessThan(*c.MinPrice) {
		return false
	}
	if c.MaxPrice != nil && p.Price.GreaterThan(*c.MaxPrice) {
		return false
	}
	if c.InStock != nil && p.InStock != *c.InStock {
		return false
	}
	return true
}
