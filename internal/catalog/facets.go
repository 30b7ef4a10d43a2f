package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/flexfit/storefront/internal/domain"
)

// CategoryCount is the number of products in one category.
type CategoryCount struct {
	Category
	Count int `json:"count"`
}

// Facets summarises a product list for building filter controls.
type Facets struct {
	Categories []CategoryCount  `json:"categories"`
	InStock    int              `json:"in_stock"`
	OutOfStock int              `json:"out_of_stock"`
	MinPrice   *decimal.Decimal `json:"min_price"`
	MaxPrice   *decimal.Decimal `json:"max_price"`
}

// Facets counts products per declared category and availability, and finds
// the price range. Prices are nil when products is empty.
func (c *Catalog) Facets(products []domain.Product) Facets {
	counts := make(map[string]int, len(c.categories))
	f := Facets{Categories: make([]CategoryCount, 0, len(c.categories))}

	for i, p := range products {
		counts[p.Category]++
		if p.InStock {
			f.InStock++
		} else {
			f.OutOfStock++
		}
		if i == 0 || p.Price.LessThan(*f.MinPrice) {
			price := p.Price
			f.MinPrice = &price
		}
		if i == 0 || p.Price.GreaterThan(*f.MaxPrice) {
			price := p.Price
			f.MaxPrice = &price
		}
	}

	for _, cat := range c.categories {
		f.Categories = append(f.Categories, CategoryCount{Category: cat, Count: counts[cat.ID]})
	}
	return f
}
