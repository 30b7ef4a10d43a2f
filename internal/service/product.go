package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/flexfit/storefront/internal/catalog"
	"github.com/flexfit/storefront/internal/domain"
	"github.com/flexfit/storefront/internal/notify"
	"github.com/flexfit/storefront/internal/repository"
	apperrors "github.com/flexfit/storefront/pkg/errors"
)

// Notification texts for backend failures.
const (
	msgProductFetchFailed = "Error fetching product"
	msgRelatedFetchFailed = "Error fetching related products"
)

// ProductService reads products from the backend repository and falls back
// to the embedded catalog when the backend fails. Backend failures never
// reach the caller; they are logged and reported as notifications.
type ProductService struct {
	repo    repository.ProductRepository
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewProductService creates a product service. repo may be nil, in which case
// every query is answered from the catalog.
func NewProductService(repo repository.ProductRepository, cat *catalog.Catalog, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:    repo,
		catalog: cat,
		logger:  logger,
	}
}

// Product looks a product up by ID. A missing product yields ok == false and
// no notification.
func (s *ProductService) Product(ctx context.Context, id string, n notify.Notifier) (domain.Product, bool) {
	if s.repo == nil {
		return s.catalog.ByID(id)
	}

	p, err := s.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		return *p, true
	case errors.Is(err, apperrors.ErrNotFound):
		return domain.Product{}, false
	default:
		s.logger.ErrorContext(ctx, "failed to fetch product from backend",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		n.Notify(ctx, notify.Error(msgProductFetchFailed))
		return s.catalog.ByID(id)
	}
}

// Related returns up to repository.RelatedLimit other products in p's
// category.
func (s *ProductService) Related(ctx context.Context, p domain.Product, n notify.Notifier) []domain.Product {
	if s.repo == nil {
		return s.relatedFromCatalog(p)
	}

	related, err := s.repo.GetByCategory(ctx, p.Category, p.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch related products from backend",
			slog.String("product_id", p.ID),
			slog.String("category", p.Category),
			slog.String("error", err.Error()),
		)
		n.Notify(ctx, notify.Error(msgRelatedFetchFailed))
		return s.relatedFromCatalog(p)
	}
	return related
}

func (s *ProductService) relatedFromCatalog(p domain.Product) []domain.Product {
	out := make([]domain.Product, 0, repository.RelatedLimit)
	for _, candidate := range s.catalog.ByCategory(p.Category) {
		if candidate.ID == p.ID {
			continue
		}
		out = append(out, candidate)
		if len(out) == repository.RelatedLimit {
			break
		}
	}
	return out
}

// SeedBackend copies the catalog into the backend when it is empty.
func (s *ProductService) SeedBackend(ctx context.Context) (bool, error) {
	if s.repo == nil {
		return false, nil
	}

	seeded, err := s.repo.SeedIfEmpty(ctx, s.catalog.All())
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		s.logger.InfoContext(ctx, "product backend seeded concurrently", slog.String("detail", err.Error()))
		return false, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to seed product backend", slog.String("error", err.Error()))
		return false, err
	}
	if seeded {
		s.logger.InfoContext(ctx, "product backend seeded", slog.Int("count", s.catalog.Len()))
	}
	return seeded, nil
}
