package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"watermelon-stand/internal/cart"
	"watermelon-stand/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// State is the checkout pipeline's position.
type State string

const (
	StateBrowsing          State = "Browsing"
	StateCollectingDetails State = "CollectingDetails"
	StateSubmitting        State = "Submitting"
	StateDone              State = "Done"
	StateFailed            State = "Failed"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrNotCollecting  = errors.New("checkout has not been started")
	ErrSubmitInFlight = errors.New("an order submission is already in flight")
	ErrInvalidPayment = errors.New("invalid payment method")
)

var validate = validator.New()

// OrderPlacer commits a composed order record to the order store.
type OrderPlacer interface {
	Place(ctx context.Context, order *domain.Order) error
}

// Pipeline drives a cart through checkout:
// Browsing -> CollectingDetails -> Submitting -> Done | Failed.
// Entered customer details survive validation and commit failures. The
// idempotency key is minted once per checkout episode, so a retry after a
// transient commit failure cannot create a second order.
type Pipeline struct {
	state   State
	details domain.CustomerDetails
	payment domain.PaymentMethod
	idemKey string
}

// New creates a pipeline in the Browsing state.
func New() *Pipeline {
	return &Pipeline{state: StateBrowsing, payment: domain.PaymentCard}
}

// State returns the current pipeline state.
func (p *Pipeline) State() State {
	return p.state
}

// Details returns the customer details as last entered, preserved across
// failed attempts.
func (p *Pipeline) Details() domain.CustomerDetails {
	return p.details
}

// PaymentMethod returns the current payment selection.
func (p *Pipeline) PaymentMethod() domain.PaymentMethod {
	return p.payment
}

// Begin moves Browsing to CollectingDetails. It refuses an empty cart and
// re-entry while a submission is in flight. Beginning again while already
// collecting keeps the existing details and idempotency key.
func (p *Pipeline) Begin(snap cart.Snapshot) error {
	switch p.state {
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateCollectingDetails, StateFailed:
		return nil
	}
	if snap.ItemCount == 0 {
		return ErrEmptyCart
	}
	p.state = StateCollectingDetails
	p.idemKey = uuid.NewString()
	return nil
}

// Submit validates the entered details, composes the order record from the
// cart and commits it. On success the cart is cleared and the pipeline ends
// in Done; on commit failure it moves to Failed, which keeps the entered
// data and accepts another submission.
func (p *Pipeline) Submit(
	ctx context.Context,
	details domain.CustomerDetails,
	payment domain.PaymentMethod,
	c *cart.Cart,
	placer OrderPlacer,
) (*domain.Order, error) {
	if p.state == StateSubmitting {
		return nil, ErrSubmitInFlight
	}
	if p.state != StateCollectingDetails && p.state != StateFailed {
		return nil, ErrNotCollecting
	}

	// Preserve whatever was entered, valid or not.
	details.Name = strings.TrimSpace(details.Name)
	details.Email = strings.TrimSpace(details.Email)
	details.Address = strings.TrimSpace(details.Address)
	p.details = details
	if payment != "" {
		p.payment = payment
	}

	if err := validate.Struct(details); err != nil {
		return nil, fmt.Errorf("shipping details incomplete: %w", err)
	}
	if !p.payment.Valid() {
		return nil, ErrInvalidPayment
	}

	snap := c.Snapshot()
	if snap.ItemCount == 0 {
		return nil, ErrEmptyCart
	}

	order := &domain.Order{
		CustomerDetails: details,
		Items:           c.Items(),
		TotalAmount:     snap.Subtotal,
		Status:          domain.StatusPending,
		PaymentMethod:   p.payment,
		IdempotencyKey:  p.idemKey,
	}

	p.state = StateSubmitting
	if err := placer.Place(ctx, order); err != nil {
		// Failed accepts resubmission like CollectingDetails: the entered
		// data and the idempotency key survive, so a retry cannot create a
		// second order.
		p.state = StateFailed
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	c.Clear()
	p.state = StateDone
	return order, nil
}

// Reset returns the pipeline to Browsing and forgets the completed episode.
func (p *Pipeline) Reset() {
	p.state = StateBrowsing
	p.details = domain.CustomerDetails{}
	p.payment = domain.PaymentCard
	p.idemKey = ""
}
