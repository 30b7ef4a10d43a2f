package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flexfit/storefront/internal/domain"
	"github.com/flexfit/storefront/internal/repository"
	"github.com/flexfit/storefront/pkg/database"
	apperrors "github.com/flexfit/storefront/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations for the products table.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Optional columns are coalesced so rows scan into plain Go values.
const productColumns = `id, name, category, price::text, COALESCE(image_url, ''), COALESCE(description, ''),
	stock, COALESCE(featured, FALSE), COALESCE(rating, 0), COALESCE(reviews, 0), COALESCE(specs, '{}'::jsonb)`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db     database.DBTX
	tracer database.QueryTracer
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX, tracer database.QueryTracer) *ProductRepository {
	return &ProductRepository{db: db, tracer: tracer}
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (p *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, end := r.tracer.Trace(ctx, "GetByID", query)
	defer func() { end(err) }()

	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &product, nil
}

// GetByCategory returns up to repository.RelatedLimit products in category,
// excluding excludeID.
func (r *ProductRepository) GetByCategory(ctx context.Context, category, excludeID string) (out []domain.Product, err error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE category = $1 AND id <> $2
		ORDER BY created_at, id
		LIMIT $3`

	ctx, end := r.tracer.Trace(ctx, "GetByCategory", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, category, excludeID, repository.RelatedLimit)
	if err != nil {
		return nil, fmt.Errorf("list products in category %s: %w", category, err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// SeedIfEmpty inserts products in one transaction when the table is empty.
func (r *ProductRepository) SeedIfEmpty(ctx context.Context, products []domain.Product) (seeded bool, err error) {
	ctx, end := r.tracer.Trace(ctx, "SeedIfEmpty", "INSERT INTO products")
	defer func() { end(err) }()

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("check products: %w", err)
	}
	if exists {
		return false, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	query := `
		INSERT INTO products (id, name, category, price, image_url, description, stock, featured, rating, reviews, specs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`

	for _, p := range products {
		row := repository.RowFromProduct(p)
		specsJSON, err := json.Marshal(row.Specs)
		if err != nil {
			return false, fmt.Errorf("marshal specs for %s: %w", p.ID, err)
		}

		if _, err = tx.Exec(ctx, query,
			row.ID,
			row.Name,
			row.Category,
			row.Price.String(),
			*row.ImageURL,
			*row.Description,
			row.Stock,
			*row.Featured,
			*row.Rating,
			*row.Reviews,
			specsJSON,
		); err != nil {
			return false, fmt.Errorf("insert product %s: %w", p.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit seed tx: %w", err)
	}
	return true, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		r         repository.Row
		price     string
		image     string
		desc      string
		featured  bool
		rating    float64
		reviews   int
		specsJSON []byte
	)

	if err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Category,
		&price,
		&image,
		&desc,
		&r.Stock,
		&featured,
		&rating,
		&reviews,
		&specsJSON,
	); err != nil {
		return domain.Product{}, err
	}

	var err error
	if r.Price, err = decimal.NewFromString(price); err != nil {
		return domain.Product{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	if len(specsJSON) > 0 {
		if err := json.Unmarshal(specsJSON, &r.Specs); err != nil {
			return domain.Product{}, fmt.Errorf("unmarshal specs: %w", err)
		}
	}
	if len(r.Specs) == 0 {
		r.Specs = nil
	}

	r.ImageURL, r.Description = &image, &desc
	r.Featured, r.Rating, r.Reviews = &featured, &rating, &reviews
	return r.Product(), nil
}
