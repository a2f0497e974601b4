package notify

import "time"

// Severity classifies a notification for presentation.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a transient user-visible message.
type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// DefaultTTL is how long a notification stays visible unless replaced or
// dismissed first.
const DefaultTTL = 3 * time.Second

// Bus is a single-slot ephemeral notification channel. Writing replaces the
// current notification and restarts its expiry; reads past the expiry see
// nothing. Notifications are advisory and never block anything.
type Bus struct {
	current   *Notification
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewBus creates a bus with the default expiry.
func NewBus() *Bus {
	return &Bus{ttl: DefaultTTL, now: time.Now}
}

// NewBusWithClock creates a bus with an injected clock and expiry, for tests.
func NewBusWithClock(ttl time.Duration, now func() time.Time) *Bus {
	return &Bus{ttl: ttl, now: now}
}

// Success publishes a success notification, replacing any current one.
func (b *Bus) Success(message string) {
	b.publish(message, SeveritySuccess)
}

// Error publishes an error notification, replacing any current one.
func (b *Bus) Error(message string) {
	b.publish(message, SeverityError)
}

func (b *Bus) publish(message string, severity Severity) {
	b.current = &Notification{Message: message, Severity: severity}
	b.expiresAt = b.now().Add(b.ttl)
}

// Current returns the displayed notification, or nil once it has expired or
// been dismissed.
func (b *Bus) Current() *Notification {
	if b.current == nil || b.now().After(b.expiresAt) {
		return nil
	}
	return b.current
}

// Dismiss clears the slot immediately.
func (b *Bus) Dismiss() {
	b.current = nil
}
