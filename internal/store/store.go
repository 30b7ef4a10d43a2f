// Package store holds the per-session storefront state: the catalog view,
// the cart, the liked set and the active filter criteria. It is the only
// mutation path for those entities.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/flexfit/storefront/internal/catalog"
	"github.com/flexfit/storefront/internal/domain"
	"github.com/flexfit/storefront/internal/filter"
	"github.com/flexfit/storefront/internal/notify"
	"github.com/flexfit/storefront/internal/preference"
	"github.com/flexfit/storefront/pkg/logger"
)

// SeedCartSize is the number of catalog products placed in a seeded cart.
const SeedCartSize = 3

// Events is the subset of the event producer the store publishes to.
type Events interface {
	PublishCartUpdated(ctx context.Context, sessionID string, cart domain.Cart) error
	PublishCartCleared(ctx context.Context, sessionID string) error
}

// Options configures a Store. Catalog is required; every other field may be
// left zero.
type Options struct {
	SessionID   string
	Catalog     *catalog.Catalog
	Preferences preference.Store
	Notifier    notify.Notifier
	Events      Events
	Logger      *slog.Logger
	// SeedCart fills an empty cart with the first SeedCartSize catalog
	// products when nothing was stored for the session.
	SeedCart bool
}

// Store is safe for concurrent use. Each operation runs as one step under
// the store's mutex.
type Store struct {
	mu sync.Mutex

	sessionID string
	catalog   *catalog.Catalog
	prefs     preference.Store
	notifier  notify.Notifier
	events    Events
	logger    *slog.Logger

	cart     domain.Cart
	liked    map[string]struct{}
	criteria domain.Criteria
	closed   bool
}

// New builds a Store and loads the stored cart and liked set. Load failures
// are logged and leave the empty defaults in place.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Catalog == nil {
		return nil, errors.New("store: catalog is required")
	}

	s := &Store{
		sessionID: opts.SessionID,
		catalog:   opts.Catalog,
		prefs:     opts.Preferences,
		notifier:  opts.Notifier,
		events:    opts.Events,
		logger:    opts.Logger,
		cart:      domain.Cart{},
		liked:     make(map[string]struct{}),
	}
	if s.notifier == nil {
		s.notifier = notify.Discard
	}
	if s.logger == nil {
		s.logger = logger.Discard()
	}
	s.logger = s.logger.With(slog.String("session_id", s.sessionID))

	s.load(ctx, opts.SeedCart)
	return s, nil
}

func (s *Store) load(ctx context.Context, seed bool) {
	if s.prefs == nil {
		if seed {
			s.seedCart()
		}
		return
	}

	cart, err := s.prefs.LoadCart(ctx, s.sessionID)
	switch {
	case err == nil:
		s.cart = cart
	case errors.Is(err, preference.ErrNotFound):
		if seed {
			s.seedCart()
			s.persistCart(ctx)
		}
	default:
		persistFailuresTotal.WithLabelValues("cart", "load").Inc()
		s.logger.WarnContext(ctx, "failed to load stored cart, using empty cart",
			slog.String("error", err.Error()),
		)
	}

	liked, err := s.prefs.LoadLiked(ctx, s.sessionID)
	switch {
	case err == nil:
		for _, id := range liked {
			s.liked[id] = struct{}{}
		}
	case errors.Is(err, preference.ErrNotFound):
	default:
		persistFailuresTotal.WithLabelValues("liked", "load").Inc()
		s.logger.WarnContext(ctx, "failed to load stored liked items, using empty set",
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) seedCart() {
	products := s.catalog.All()
	if len(products) > SeedCartSize {
		products = products[:SeedCartSize]
	}
	for _, p := range products {
		s.cart = append(s.cart, domain.CartItem{Product: p, Quantity: 1})
	}
}

// SessionID returns the session the store belongs to.
func (s *Store) SessionID() string {
	return s.sessionID
}

// Close ends the store's lifecycle. Later mutations still apply in memory but
// are no longer persisted or published.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// AddToCart adds quantity units of product. An existing line for the same
// product is incremented and keeps its original snapshot. A quantity below
// one is treated as one.
func (s *Store) AddToCart(ctx context.Context, product domain.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	var msg string
	if idx := s.cart.IndexOf(product.ID); idx >= 0 {
		s.cart[idx].Quantity += quantity
		msg = fmt.Sprintf("Updated %s quantity in cart", product.Name)
	} else {
		s.cart = append(s.cart, domain.CartItem{Product: product.Clone(), Quantity: quantity})
		msg = fmt.Sprintf("Added %s to cart", product.Name)
	}
	snapshot := s.commitCart(ctx)
	s.mu.Unlock()

	cartMutationsTotal.WithLabelValues("add").Inc()
	s.notifier.Notify(ctx, notify.Success(msg))
	s.publishUpdated(ctx, snapshot)
}

// RemoveFromCart removes the line for productID. It is a no-op when no such
// line exists.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) {
	s.mu.Lock()
	idx := s.cart.IndexOf(productID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	removed := s.cart[idx]
	s.cart = append(s.cart[:idx:idx], s.cart[idx+1:]...)
	snapshot := s.commitCart(ctx)
	s.mu.Unlock()

	cartMutationsTotal.WithLabelValues("remove").Inc()
	s.notifier.Notify(ctx, notify.Success(fmt.Sprintf("Removed %s from cart", removed.Product.Name)))
	s.publishUpdated(ctx, snapshot)
}

// UpdateQuantity sets the line's quantity exactly. A quantity of zero or
// less removes the line; an unknown productID is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		s.RemoveFromCart(ctx, productID)
		return
	}

	s.mu.Lock()
	idx := s.cart.IndexOf(productID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.cart[idx].Quantity = quantity
	snapshot := s.commitCart(ctx)
	s.mu.Unlock()

	cartMutationsTotal.WithLabelValues("update").Inc()
	s.publishUpdated(ctx, snapshot)
}

// ClearCart empties the cart unconditionally.
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	s.cart = domain.Cart{}
	s.commitCart(ctx)
	publish := !s.closed && s.events != nil
	s.mu.Unlock()

	cartMutationsTotal.WithLabelValues("clear").Inc()
	s.notifier.Notify(ctx, notify.Success("Cart cleared"))

	if publish {
		if err := s.events.PublishCartCleared(ctx, s.sessionID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
				slog.String("error", err.Error()),
			)
		}
	}
}

// ToggleLike flips productID's membership in the liked set and reports the
// new membership. Unknown products are toggled without a notification.
func (s *Store) ToggleLike(ctx context.Context, productID string) bool {
	s.mu.Lock()
	_, liked := s.liked[productID]
	if liked {
		delete(s.liked, productID)
	} else {
		s.liked[productID] = struct{}{}
	}
	liked = !liked
	s.persistLiked(ctx)
	s.mu.Unlock()

	state := "removed"
	if liked {
		state = "added"
	}
	likedTogglesTotal.WithLabelValues(state).Inc()

	if p, ok := s.catalog.ByID(productID); ok {
		if liked {
			s.notifier.Notify(ctx, notify.Success(fmt.Sprintf("Added %s to favorites", p.Name)))
		} else {
			s.notifier.Notify(ctx, notify.Success(fmt.Sprintf("Removed %s from favorites", p.Name)))
		}
	}
	return liked
}

// IsLiked reports whether productID is in the liked set.
func (s *Store) IsLiked(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.liked[productID]
	return ok
}

// LikedCount returns the size of the liked set.
func (s *Store) LikedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.liked)
}

// Liked returns the liked product IDs in sorted order.
func (s *Store) Liked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likedIDs()
}

// LikedProducts returns the catalog products in the liked set, in catalog
// order. Liked IDs missing from the catalog are skipped.
func (s *Store) LikedProducts() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Product, 0, len(s.liked))
	for _, p := range s.catalog.All() {
		if _, ok := s.liked[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Cart returns a copy of the cart lines.
func (s *Store) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// CartTotal sums price × quantity over the cart using each line's snapshot
// price.
func (s *Store) CartTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

// CartCount sums the quantities in the cart.
func (s *Store) CartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Count()
}

// ApplyFilters merges patch into the active criteria and returns the result.
func (s *Store) ApplyFilters(patch domain.CriteriaPatch) domain.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = s.criteria.Merge(patch)
	return s.criteria
}

// ResetFilters clears every criterion.
func (s *Store) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = domain.Criteria{}
}

// Filters returns the active criteria.
func (s *Store) Filters() domain.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// FilteredProducts applies the active criteria to the catalog.
func (s *Store) FilteredProducts() []domain.Product {
	c := s.Filters()
	return filter.Apply(s.catalog.All(), c)
}

// Products returns the full catalog.
func (s *Store) Products() []domain.Product {
	return s.catalog.All()
}

// ProductsByCategory returns the catalog products whose category equals
// category exactly.
func (s *Store) ProductsByCategory(category string) []domain.Product {
	return s.catalog.ByCategory(category)
}

// ProductByID returns the first catalog product with the given ID.
func (s *Store) ProductByID(id string) (domain.Product, bool) {
	return s.catalog.ByID(id)
}

// FeaturedProducts returns the catalog products flagged as featured.
func (s *Store) FeaturedProducts() []domain.Product {
	return s.catalog.Featured()
}

// Catalog exposes the underlying catalog for category and facet queries.
func (s *Store) Catalog() *catalog.Catalog {
	return s.catalog
}

// commitCart persists the cart and returns a snapshot for publishing. The
// caller holds s.mu.
func (s *Store) commitCart(ctx context.Context) domain.Cart {
	s.persistCart(ctx)
	return s.cart.Clone()
}

func (s *Store) persistCart(ctx context.Context) {
	if s.prefs == nil || s.closed {
		return
	}
	if err := s.prefs.SaveCart(ctx, s.sessionID, s.cart); err != nil {
		persistFailuresTotal.WithLabelValues("cart", "save").Inc()
		s.logger.ErrorContext(ctx, "failed to persist cart",
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) persistLiked(ctx context.Context) {
	if s.prefs == nil || s.closed {
		return
	}
	if err := s.prefs.SaveLiked(ctx, s.sessionID, s.likedIDs()); err != nil {
		persistFailuresTotal.WithLabelValues("liked", "save").Inc()
		s.logger.ErrorContext(ctx, "failed to persist liked items",
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) likedIDs() []string {
	ids := make([]string, 0, len(s.liked))
	for id := range s.liked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) publishUpdated(ctx context.Context, cart domain.Cart) {
	s.mu.Lock()
	publish := !s.closed && s.events != nil
	s.mu.Unlock()
	if !publish {
		return
	}

	if err := s.events.PublishCartUpdated(ctx, s.sessionID, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("error", err.Error()),
		)
	}
}
