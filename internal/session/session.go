package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"watermelon-stand/internal/cart"
	"watermelon-stand/internal/checkout"
	"watermelon-stand/internal/domain"
	"watermelon-stand/internal/notify"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Surface is the active user-visible surface.
type Surface string

const (
	SurfaceShop  Surface = "shop"
	SurfaceCart  Surface = "cart"
	SurfaceAdmin Surface = "admin"
)

// Valid reports whether s names a known surface.
func (s Surface) Valid() bool {
	return s == SurfaceShop || s == SurfaceCart || s == SurfaceAdmin
}

// NavState is the derived navigation state rendered in the top bar, plus the
// pending notification if one is displayed.
type NavState struct {
	UID          string               `json:"uid"`
	Surface      Surface              `json:"surface"`
	CartCount    int                  `json:"cartCount"`
	Operator     bool                 `json:"operator"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// Session owns one caller's in-memory state: identity, active surface, cart,
// checkout pipeline and notification slot. All mutations go through the
// session lock; within a session, operations apply in program order.
type Session struct {
	mu       sync.Mutex
	uid      string
	operator bool
	surface  Surface
	cart     *cart.Cart
	pipeline *checkout.Pipeline
	notes    *notify.Bus
	lastSeen time.Time
}

func newSession(uid string, operator bool) *Session {
	return &Session{
		uid:      uid,
		operator: operator,
		surface:  SurfaceShop,
		cart:     cart.New(),
		pipeline: checkout.New(),
		notes:    notify.NewBus(),
		lastSeen: time.Now(),
	}
}

// UID returns the stable caller identity for the life of the session.
func (s *Session) UID() string {
	return s.uid
}

// Operator reports whether this caller's identity equals the operator
// constant. This is the sole admission rule at this layer.
func (s *Session) Operator() bool {
	return s.operator
}

// Nav returns the current navigation state.
func (s *Session) Nav() NavState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NavState{
		UID:          s.uid,
		Surface:      s.surface,
		CartCount:    s.cart.Snapshot().ItemCount,
		Operator:     s.operator,
		Notification: s.notes.Current(),
	}
}

// SetSurface switches the active surface. The admin surface is reachable for
// everyone; non-operators get the access-denied rendering there, not an
// error here.
func (s *Session) SetSurface(surface Surface) error {
	if !surface.Valid() {
		return fmt.Errorf("unknown surface %q", surface)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface = surface
	return nil
}

// AddToCart puts one unit of the product in the cart and notifies.
func (s *Session) AddToCart(product *domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Add(product)
	s.notes.Success(fmt.Sprintf("%s added to cart!", product.Name))
}

// SetCartQuantity sets a line's quantity; zero or below removes the line.
func (s *Session) SetCartQuantity(productID uuid.UUID, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.SetQuantity(productID, quantity)
}

// RemoveFromCart removes the line and notifies. Removing an absent product
// still emits the standard removal message.
func (s *Session) RemoveFromCart(productID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Remove(productID)
	s.notes.Success("Item removed from cart.")
}

// CartSnapshot returns the cart's lines and derived totals.
func (s *Session) CartSnapshot() cart.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Snapshot()
}

// BeginCheckout moves the pipeline into collecting details. It fails on an
// empty cart and emits the error notification itself.
func (s *Session) BeginCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pipeline.Begin(s.cart.Snapshot()); err != nil {
		s.notes.Error("Your cart is empty.")
		return err
	}
	return nil
}

// CheckoutState exposes the pipeline state and the preserved form data.
func (s *Session) CheckoutState() (checkout.State, domain.CustomerDetails, domain.PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.State(), s.pipeline.Details(), s.pipeline.PaymentMethod()
}

// SubmitCheckout runs the submit transition. On success the cart is already
// cleared by the pipeline; the session returns to the shop surface and shows
// the success notification. On failure the entered data is preserved and an
// error notification shows.
func (s *Session) SubmitCheckout(
	ctx context.Context,
	details domain.CustomerDetails,
	payment domain.PaymentMethod,
	placer checkout.OrderPlacer,
) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.pipeline.Submit(ctx, details, payment, s.cart, placer)
	if err != nil {
		// Flow-control rejections (not collecting, submit in flight, empty
		// cart) are reported by the caller and do not touch the slot.
		var fieldErrs validator.ValidationErrors
		switch {
		case s.pipeline.State() == checkout.StateFailed:
			s.notes.Error("There was an error placing your order. Please try again.")
		case errors.Is(err, checkout.ErrInvalidPayment):
			s.notes.Error("Please choose a valid payment method.")
		case errors.As(err, &fieldErrs):
			s.notes.Error("Please fill out all shipping fields.")
		}
		return nil, err
	}

	s.surface = SurfaceShop
	s.pipeline.Reset()
	s.notes.Success("Order Placed! Thank you for your purchase.")
	return order, nil
}

// NotifySuccess publishes a success message into the notification slot.
func (s *Session) NotifySuccess(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes.Success(message)
}

// NotifyError publishes an error message into the notification slot.
func (s *Session) NotifyError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes.Error(message)
}

// DismissNotification clears the notification slot immediately.
func (s *Session) DismissNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes.Dismiss()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}
