// Package checkout implements the linear checkout flow:
// shipping → payment → confirmation.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flexfit/storefront/internal/domain"
	apperrors "github.com/flexfit/storefront/pkg/errors"
	"github.com/flexfit/storefront/pkg/logger"
	pkgvalidator "github.com/flexfit/storefront/pkg/validator"
)

// DefaultProcessingDelay is the simulated payment processing time.
const DefaultProcessingDelay = 2 * time.Second

// ErrClosed is returned by PlaceOrder when the sequencer was closed while the
// order was processing. The cart is left untouched.
var ErrClosed = errors.New("checkout closed")

// Cart is what the sequencer needs from the cart owner.
type Cart interface {
	Cart() domain.Cart
	ClearCart(ctx context.Context)
}

// FormError reports the first invalid shipping field.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string { return e.Message }

// Unwrap lets callers match apperrors.ErrInvalidInput.
func (e *FormError) Unwrap() error { return apperrors.ErrInvalidInput }

// Options configures a Sequencer. Zero values select the defaults; a negative
// ProcessingDelay disables the delay.
type Options struct {
	ProcessingDelay time.Duration
	OrderNumbers    OrderNumberGenerator
	Now             func() time.Time
	Logger          *slog.Logger
}

// Sequencer is one checkout flow instance. It starts at shipping and never
// leaves confirmation once reached.
type Sequencer struct {
	mu           sync.Mutex
	step         domain.Step
	form         domain.ShippingForm
	confirmation *domain.Confirmation
	placing      bool
	closed       bool

	delay   time.Duration
	numbers OrderNumberGenerator
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a sequencer at the shipping step.
func New(opts Options) *Sequencer {
	s := &Sequencer{
		step:    domain.StepShipping,
		delay:   opts.ProcessingDelay,
		numbers: opts.OrderNumbers,
		now:     opts.Now,
		logger:  opts.Logger,
	}
	if s.delay == 0 {
		s.delay = DefaultProcessingDelay
	}
	if s.delay < 0 {
		s.delay = 0
	}
	if s.numbers == nil {
		s.numbers = RandomOrderNumbers
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = logger.Discard()
	}
	return s
}

// Step returns the current step.
func (s *Sequencer) Step() domain.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Form returns the last submitted shipping form.
func (s *Sequencer) Form() domain.ShippingForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Confirmation returns the order confirmation once the order is placed.
func (s *Sequencer) Confirmation() (domain.Confirmation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.confirmation == nil {
		return domain.Confirmation{}, false
	}
	c := *s.confirmation
	c.Items = c.Items.Clone()
	return c, true
}

// Processing reports whether PlaceOrder is waiting on the processing delay.
func (s *Sequencer) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placing
}

// SubmitShipping records form and advances to payment when it is valid. The
// form is kept even when invalid so the user does not lose their input.
func (s *Sequencer) SubmitShipping(ctx context.Context, form domain.ShippingForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != domain.StepShipping {
		return apperrors.InvalidStep("submit shipping details", string(s.step))
	}

	s.form = form
	if err := ValidateShipping(form); err != nil {
		var fe *FormError
		if errors.As(err, &fe) {
			shippingRejectionsTotal.WithLabelValues(fe.Field).Inc()
		}
		s.logger.DebugContext(ctx, "shipping form rejected", slog.String("error", err.Error()))
		return err
	}

	s.step = domain.StepPayment
	return nil
}

// Back returns from payment to shipping. It is only allowed from payment.
func (s *Sequencer) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != domain.StepPayment || s.placing {
		return apperrors.InvalidStep("go back", string(s.step))
	}
	s.step = domain.StepShipping
	return nil
}

// PlaceOrder simulates payment processing, then snapshots the cart total,
// clears the cart and moves to confirmation. If ctx ends or the sequencer is
// closed during processing, nothing changes.
func (s *Sequencer) PlaceOrder(ctx context.Context, cart Cart) (domain.Confirmation, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return domain.Confirmation{}, ErrClosed
	case s.step != domain.StepPayment:
		s.mu.Unlock()
		return domain.Confirmation{}, apperrors.InvalidStep("place order", string(s.step))
	case s.placing:
		s.mu.Unlock()
		return domain.Confirmation{}, apperrors.Conflict("order is already being processed")
	}
	s.placing = true
	s.mu.Unlock()

	if err := s.wait(ctx); err != nil {
		s.mu.Lock()
		s.placing = false
		s.mu.Unlock()
		return domain.Confirmation{}, fmt.Errorf("place order: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.placing = false

	if s.closed {
		return domain.Confirmation{}, ErrClosed
	}

	items := cart.Cart()
	if len(items) == 0 {
		return domain.Confirmation{}, apperrors.CartEmpty()
	}

	summary := Summary(items.Total())
	c := domain.Confirmation{
		OrderNumber: s.numbers.Next(),
		PlacedAt:    s.now().UTC(),
		Total:       summary.Total,
		Summary:     summary,
		Items:       items,
	}

	cart.ClearCart(ctx)
	s.confirmation = &c
	s.step = domain.StepConfirmation
	ordersPlacedTotal.Inc()

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_number", c.OrderNumber),
		slog.String("total", c.Total.StringFixed(2)),
		slog.Int("item_count", items.Count()),
	)

	out := c
	out.Items = c.Items.Clone()
	return out, nil
}

// Close tears the flow down. An order still processing is discarded.
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Sequencer) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ValidateShipping checks the required fields in form order, then the email
// format. It returns a *FormError describing the first problem.
func ValidateShipping(form domain.ShippingForm) error {
	err := pkgvalidator.Validate(form)
	if err == nil {
		return nil
	}

	var ve *pkgvalidator.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate shipping form: %w", err)
	}

	for _, fe := range ve.Errors {
		if fe.Tag() == "required" {
			return &FormError{
				Field:   fe.Field(),
				Message: "Please enter your " + pkgvalidator.Humanize(fe.StructField()),
			}
		}
	}

	first := ve.First()
	if first.Tag() == "basic_email" {
		return &FormError{Field: first.Field(), Message: "Please enter a valid email address"}
	}
	return &FormError{Field: first.Field(), Message: fmt.Sprintf("Please check your %s", pkgvalidator.Humanize(first.StructField()))}
}
