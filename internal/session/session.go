// Package session owns the per-session state: one Store, a notification
// queue and at most one checkout flow.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flexfit/storefront/internal/catalog"
	"github.com/flexfit/storefront/internal/checkout"
	"github.com/flexfit/storefront/internal/domain"
	"github.com/flexfit/storefront/internal/notify"
	"github.com/flexfit/storefront/internal/preference"
	"github.com/flexfit/storefront/internal/store"
	apperrors "github.com/flexfit/storefront/pkg/errors"
	"github.com/flexfit/storefront/pkg/logger"
)

// Events is everything a session publishes.
type Events interface {
	store.Events
	PublishOrderPlaced(ctx context.Context, sessionID string, c domain.Confirmation) error
}

// Options configures a Manager. Catalog is required.
type Options struct {
	Catalog     *catalog.Catalog
	Preferences preference.Store
	Events      Events
	Checkout    checkout.Options
	QueueSize   int
	SeedCart    bool
	Logger      *slog.Logger
	Now         func() time.Time
}

// Session is one shopper's state.
type Session struct {
	ID            string
	Store         *store.Store
	Notifications *notify.Queue

	mu       sync.Mutex
	checkout *checkout.Sequencer
	lastSeen time.Time

	checkoutOpts checkout.Options
	events       Events
	logger       *slog.Logger
}

// Manager maps session IDs to sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     Options
}

// NewManager creates an empty manager.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Open returns the session for id, creating it and loading its stored
// preferences on first use.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	if s, ok := m.lookup(id); ok {
		return s, nil
	}

	l := m.opts.Logger.With(slog.String("session_id", id))
	q := notify.NewQueue(m.opts.QueueSize)

	var events store.Events
	if m.opts.Events != nil {
		events = m.opts.Events
	}

	st, err := store.New(ctx, store.Options{
		SessionID:   id,
		Catalog:     m.opts.Catalog,
		Preferences: m.opts.Preferences,
		Notifier:    q,
		Events:      events,
		Logger:      m.opts.Logger,
		SeedCart:    m.opts.SeedCart,
	})
	if err != nil {
		return nil, fmt.Errorf("open session %s: %w", id, err)
	}

	checkoutOpts := m.opts.Checkout
	checkoutOpts.Logger = l

	s := &Session{
		ID:            id,
		Store:         st,
		Notifications: q,
		lastSeen:      m.opts.Now(),
		checkoutOpts:  checkoutOpts,
		events:        m.opts.Events,
		logger:        l,
	}
	// Preferences load without the manager lock held; a concurrent Open of
	// the same id may have won meanwhile.
	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		st.Close()
		existing.touch(m.opts.Now())
		return existing, nil
	}
	m.sessions[id] = s
	sessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	l.DebugContext(ctx, "session opened",
		slog.Int("cart_count", st.CartCount()),
		slog.Int("liked_count", st.LikedCount()),
	)
	return s, nil
}

func (m *Manager) lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		s.touch(m.opts.Now())
	}
	return s, ok
}

// Get returns an already open session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close tears a session down. With purge set, its stored cart and liked set
// are deleted too. Closing an unknown session only purges storage.
func (m *Manager) Close(ctx context.Context, id string, purge bool) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	sessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if ok {
		s.teardown()
	}

	if purge && m.opts.Preferences != nil {
		if err := m.opts.Preferences.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete preferences for session %s: %w", id, err)
		}
	}
	return nil
}

// Sweep closes sessions idle for longer than idle and returns how many were
// closed. Stored preferences are kept so the shopper can resume later.
func (m *Manager) Sweep(ctx context.Context, idle time.Duration) int {
	cutoff := m.opts.Now().Add(-idle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	sessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, s := range stale {
		s.teardown()
	}
	if len(stale) > 0 {
		sessionsEvictedTotal.Add(float64(len(stale)))
		m.opts.Logger.InfoContext(ctx, "evicted idle sessions", slog.Int("count", len(stale)))
	}
	return len(stale)
}

// CloseAll tears every session down without purging storage.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	sessionsActive.Set(0)
	m.mu.Unlock()

	for _, s := range all {
		s.teardown()
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// LastSeen returns when the session was last opened.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) teardown() {
	s.mu.Lock()
	if s.checkout != nil {
		s.checkout.Close()
		s.checkout = nil
	}
	s.mu.Unlock()
	s.Store.Close()
}

// Checkout enters the checkout flow, reusing the current flow when one
// exists. With an empty cart and no confirmed order the stale flow is
// destroyed and apperrors.ErrCartEmpty is returned.
func (s *Session) Checkout(ctx context.Context) (*checkout.Sequencer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireItemsLocked(ctx); err != nil {
		return nil, err
	}
	if s.checkout == nil {
		s.checkout = checkout.New(s.checkoutOpts)
		s.logger.DebugContext(ctx, "checkout started")
	}
	return s.checkout, nil
}

// ActiveCheckout returns the flow in progress. Like Checkout, an unconfirmed
// flow whose cart has been emptied is destroyed with apperrors.ErrCartEmpty.
func (s *Session) ActiveCheckout(ctx context.Context) (*checkout.Sequencer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkout == nil {
		return nil, apperrors.Conflict("no checkout in progress")
	}
	if err := s.requireItemsLocked(ctx); err != nil {
		return nil, err
	}
	return s.checkout, nil
}

// requireItemsLocked fails when the cart is empty and no order has been
// confirmed, closing any flow. The cart is read before the step: placing an
// order empties the cart and confirms under the sequencer lock, so an empty
// cart seen here with a confirmed step is a placed order. s.mu must be held.
func (s *Session) requireItemsLocked(ctx context.Context) error {
	if s.Store.CartCount() > 0 {
		return nil
	}
	if s.checkout != nil {
		if s.checkout.Step() == domain.StepConfirmation {
			return nil
		}
		s.checkout.Close()
		s.checkout = nil
		s.logger.DebugContext(ctx, "checkout closed with empty cart")
	}
	s.Notifications.Notify(ctx, notify.Error("Your cart is empty"))
	return apperrors.CartEmpty()
}

// CurrentCheckout returns the active flow without entering one.
func (s *Session) CurrentCheckout() (*checkout.Sequencer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkout, s.checkout != nil
}

// ExitCheckout destroys the flow. An order still processing is discarded.
func (s *Session) ExitCheckout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout != nil {
		s.checkout.Close()
		s.checkout = nil
	}
}

// ClearCart empties the cart and destroys a checkout flow that has not been
// confirmed.
func (s *Session) ClearCart(ctx context.Context) {
	s.Store.ClearCart(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout != nil && s.checkout.Step() != domain.StepConfirmation {
		s.checkout.Close()
		s.checkout = nil
	}
}

// PlaceOrder places the order on the current flow and publishes
// order.placed. The flow must already be at the payment step.
func (s *Session) PlaceOrder(ctx context.Context) (domain.Confirmation, error) {
	seq, err := s.ActiveCheckout(ctx)
	if err != nil {
		return domain.Confirmation{}, err
	}

	conf, err := seq.PlaceOrder(ctx, s.Store)
	if err != nil {
		if errors.Is(err, checkout.ErrClosed) {
			s.logger.InfoContext(ctx, "discarded order for closed checkout")
		}
		return domain.Confirmation{}, err
	}

	if s.events != nil {
		if err := s.events.PublishOrderPlaced(ctx, s.ID, conf); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish order.placed event",
				slog.String("order_number", conf.OrderNumber),
				slog.String("error", err.Error()),
			)
		}
	}
	return conf, nil
}
