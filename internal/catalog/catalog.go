package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/flexfit/storefront/internal/domain"
)

//go:embed products.yaml
var defaultData []byte

// Category is a product category with its display name.
type Category struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type rawProduct struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Category    string            `yaml:"category"`
	Price       string            `yaml:"price"`
	Image       string            `yaml:"image"`
	Description string            `yaml:"description"`
	InStock     bool              `yaml:"in_stock"`
	Featured    bool              `yaml:"featured"`
	Rating      float64           `yaml:"rating"`
	Reviews     int               `yaml:"reviews"`
	Specs       map[string]string `yaml:"specs"`
}

type rawCatalog struct {
	Categories []Category   `yaml:"categories"`
	Products   []rawProduct `yaml:"products"`
}

// Catalog is the immutable product dataset. Every query returns copies.
type Catalog struct {
	products   []domain.Product
	categories []Category
	byID       map[string]int
}

// Default loads the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultData)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	products := make([]domain.Product, 0, len(raw.Products))
	for i, rp := range raw.Products {
		price, err := decimal.NewFromString(rp.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d (%s): parse price %q: %w", i, rp.ID, rp.Price, err)
		}
		products = append(products, domain.Product{
			ID:          rp.ID,
			Name:        rp.Name,
			Category:    rp.Category,
			Price:       price,
			Image:       rp.Image,
			Description: rp.Description,
			InStock:     rp.InStock,
			Featured:    rp.Featured,
			Rating:      rp.Rating,
			Reviews:     rp.Reviews,
			Specs:       rp.Specs,
		})
	}

	return New(products, raw.Categories)
}

// New builds a catalog from already-decoded products. Products must have
// unique non-empty IDs, a name, a non-negative price and a rating within
// 0–5. When categories is non-empty every product must belong to one of them.
func New(products []domain.Product, categories []Category) (*Catalog, error) {
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		if c.ID == "" {
			return nil, fmt.Errorf("category with empty id")
		}
		known[c.ID] = true
	}

	byID := make(map[string]int, len(products))
	for i, p := range products {
		switch {
		case p.ID == "":
			return nil, fmt.Errorf("product %d: empty id", i)
		case p.Name == "":
			return nil, fmt.Errorf("product %s: empty name", p.ID)
		case p.Price.IsNegative():
			return nil, fmt.Errorf("product %s: negative price %s", p.ID, p.Price)
		case p.Rating < 0 || p.Rating > 5:
			return nil, fmt.Errorf("product %s: rating %.1f outside 0-5", p.ID, p.Rating)
		case len(known) > 0 && !known[p.Category]:
			return nil, fmt.Errorf("product %s: unknown category %q", p.ID, p.Category)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		byID[p.ID] = i
	}

	return &Catalog{
		products:   domain.CloneProducts(products),
		categories: append([]Category(nil), categories...),
		byID:       byID,
	}, nil
}

// All returns every product in catalog order.
func (c *Catalog) All() []domain.Product {
	return domain.CloneProducts(c.products)
}

// Len is the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// ByID returns the product with the given ID. A missing product is reported
// through ok, not an error.
func (c *Catalog) ByID(id string) (domain.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i].Clone(), true
}

// ByCategory returns the products whose category matches exactly.
func (c *Catalog) ByCategory(category string) []domain.Product {
	return c.where(func(p domain.Product) bool { return p.Category == category })
}

// Featured returns the products flagged as featured.
func (c *Catalog) Featured() []domain.Product {
	return c.where(func(p domain.Product) bool { return p.Featured })
}

// Search matches q case-insensitively against name, description and
// category. A blank query returns every product.
func (c *Catalog) Search(q string) []domain.Product {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return c.All()
	}
	return c.where(func(p domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Category), q)
	})
}

// Categories returns the declared categories in display order.
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Category looks up a category by ID.
func (c *Catalog) Category(id string) (Category, bool) {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

func (c *Catalog) where(keep func(domain.Product) bool) []domain.Product {
	out := make([]domain.Product, 0)
	for _, p := range c.products {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}
