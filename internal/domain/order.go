package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a committed order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusPaid      OrderStatus = "Paid"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

// OrderStatuses lists every valid status in presentation order.
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusPaid,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is one of the enumerated order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// PaymentMethod is the payment selection made at checkout. The card path is
// a stub: no capture happens for either method.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "Card"
	PaymentCash PaymentMethod = "Cash"
)

// Valid reports whether m is a recognised payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCard || m == PaymentCash
}

// CustomerDetails is the shipping information entered at checkout. It has no
// life of its own; it exists only embedded in the order it was entered for.
type CustomerDetails struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// OrderItem is a single line of an order. Name and Price are frozen from the
// cart line at submission time; a later catalog edit does not touch them.
type OrderItem struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Quantity int       `json:"quantity"`
	Price    float64   `json:"price"`
}

// Subtotal returns quantity times the frozen unit price.
func (i OrderItem) Subtotal() float64 {
	return float64(i.Quantity) * i.Price
}

// Order is a committed order. CreatedAt is assigned by the store's clock at
// commit time, never by the caller. Orders are never deleted; only their
// status changes after creation.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	CustomerDetails CustomerDetails `json:"customerDetails" db:"customer_details"`
	Items           []OrderItem     `json:"items" db:"items"`
	TotalAmount     float64         `json:"totalAmount" db:"total_amount"`
	Status          OrderStatus     `json:"status" db:"status"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	IdempotencyKey  string          `json:"-" db:"idempotency_key"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
}
