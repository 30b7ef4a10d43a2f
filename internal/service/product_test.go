package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flexfit/storefront/internal/catalog"
	"github.com/flexfit/storefront/internal/domain"
	"github.com/flexfit/storefront/internal/notify"
	apperrors "github.com/flexfit/storefront/pkg/errors"
	"github.com/flexfit/storefront/pkg/logger"
)

// --- Mock Repository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetByCategory(ctx context.Context, category, excludeID string) ([]domain.Product, error) {
	args := m.Called(ctx, category, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) SeedIfEmpty(ctx context.Context, products []domain.Product) (bool, error) {
	args := m.Called(ctx, products)
	return args.Bool(0), args.Error(1)
}

// --- Test Helpers ---

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	var products []domain.Product
	for _, id := range []string{"s1", "s2", "s3", "s4", "s5", "s6"} {
		products = append(products, domain.Product{ID: id, Name: "Strength " + id, Category: "strength", Price: decimal.NewFromInt(10), InStock: true})
	}
	products = append(products, domain.Product{ID: "r1", Name: "Roller", Category: "recovery", Price: decimal.NewFromInt(20)})
	c, err := catalog.New(products, nil)
	require.NoError(t, err)
	return c
}

func newTestProductService(t *testing.T, repo *mockProductRepository) *ProductService {
	t.Helper()
	if repo == nil {
		return NewProductService(nil, testCatalog(t), logger.Discard())
	}
	return NewProductService(repo, testCatalog(t), logger.Discard())
}

// --- Product ---

func TestProduct_FromBackend(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(t, repo)
	q := notify.NewQueue(4)

	backend := &domain.Product{ID: "s1", Name: "Backend Name", Price: decimal.NewFromInt(99)}
	repo.On("GetByID", mock.Anything, "s1").Return(backend, nil)

	p, ok := svc.Product(context.Background(), "s1", q)
	require.True(t, ok)
	assert.Equal(t, "Backend Name", p.Name)
	assert.Zero(t, q.Len())
	repo.AssertExpectations(t)
}

func TestProduct_NotFoundIsNotAnError(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(t, repo)
	q := notify.NewQueue(4)

	repo.On("GetByID", mock.Anything, "ghost").Return(nil, apperrors.NotFound("product", "ghost"))

	_, ok := svc.Product(context.Background(), "ghost", q)
	assert.False(t, ok)
	assert.Zero(t, q.Len())
}

func TestProduct_BackendFailureFallsBackAndNotifies(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(t, repo)
	q := notify.NewQueue(4)

	repo.On("GetByID", mock.Anything, "s2").Return(nil, errors.New("timeout"))

	p, ok := svc.Product(context.Background(), "s2", q)
	require.True(t, ok)
	assert.Equal(t, "Strength s2", p.Name)

	notes := q.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.LevelError, notes[0].Level)
	assert.Equal(t, msgProductFetchFailed, notes[0].Message)
}

func TestProduct_NoRepositoryUsesCatalog(t *testing.T) {
	svc := newTestProductService(t, nil)

	p, ok := svc.Product(context.Background(), "r1", notify.Discard)
	require.True(t, ok)
	assert.Equal(t, "Roller", p.Name)
}

// --- Related ---

func TestRelated_FromBackend(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(t, repo)

	repo.On("GetByCategory", mock.Anything, "strength", "s1").
		Return([]domain.Product{{ID: "s9", Name: "Remote"}}, nil)

	got := svc.Related(context.Background(), domain.Product{ID: "s1", Category: "strength"}, notify.Discard)
	require.Len(t, got, 1)
	assert.Equal(t, "s9", got[0].ID)
}

func TestRelated_BackendFailureFallsBack(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(t, repo)
	q := notify.NewQueue(4)

	repo.On("GetByCategory", mock.Anything, "strength", "s1").Return(nil, errors.New("503"))

	got := svc.Related(context.Background(), domain.Product{ID: "s1", Category: "strength"}, q)
	require.Len(t, got, 4)
	for _, p := range got {
		assert.NotEqual(t, "s1", p.ID)
		assert.Equal(t, "strength", p.Category)
	}
	assert.Equal(t, []string{"s2", "s3", "s4", "s5"}, []string{got[0].ID, got[1].ID, got[2].ID, got[3].ID})

	notes := q.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, msgRelatedFetchFailed, notes[0].Message)
}

func TestRelated_NoRepositorySmallCategory(t *testing.T) {
	svc := newTestProductService(t, nil)
	got := svc.Related(context.Background(), domain.Product{ID: "r1", Category: "recovery"}, notify.Discard)
	assert.Empty(t, got)
}

// --- SeedBackend ---

func TestSeedBackend(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(t, repo)

	repo.On("SeedIfEmpty", mock.Anything, mock.MatchedBy(func(ps []domain.Product) bool { return len(ps) == 7 })).
		Return(true, nil).Once()

	seeded, err := svc.SeedBackend(context.Background())
	require.NoError(t, err)
	assert.True(t, seeded)
	repo.AssertExpectations(t)
}

func TestSeedBackend_Error(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(t, repo)
	repo.On("SeedIfEmpty", mock.Anything, mock.Anything).Return(false, errors.New("denied"))

	_, err := svc.SeedBackend(context.Background())
	assert.Error(t, err)
}

func TestSeedBackend_ConcurrentSeedIsNotAnError(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(t, repo)
	repo.On("SeedIfEmpty", mock.Anything, mock.Anything).
		Return(false, apperrors.Wrap(apperrors.AlreadyExists("product", "id", "jump-rope"), "seed products"))

	seeded, err := svc.SeedBackend(context.Background())
	assert.NoError(t, err)
	assert.False(t, seeded)
}

func TestSeedBackend_NoRepository(t *testing.T) {
	seeded, err := newTestProductService(t, nil).SeedBackend(context.Background())
	assert.NoError(t, err)
	assert.False(t, seeded)
}
