package service

import (
	"context"
	"fmt"

	"watermelon-stand/internal/domain"
	"watermelon-stand/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService implements order placement for shoppers and order management
// for the operator console.
type OrderService interface {
	// Place commits the order. A replayed submission with the same
	// idempotency key succeeds and yields the order committed first.
	Place(ctx context.Context, order *domain.Order) error
	List(ctx context.Context) ([]*domain.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

type orderService struct {
	orders repository.OrderRepository
	logger *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orders repository.OrderRepository, logger *zap.Logger) OrderService {
	return &orderService{orders: orders, logger: logger}
}

func (s *orderService) Place(ctx context.Context, order *domain.Order) error {
	replayed, err := s.orders.Create(ctx, order)
	if err != nil {
		s.logger.Error("Failed to place order",
			zap.String("customer", order.CustomerDetails.Name),
			zap.Error(err),
		)
		return err
	}

	if replayed {
		s.logger.Info("Order submission replayed, returning original",
			zap.String("order_id", order.ID.String()),
		)
		return nil
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.Float64("total", order.TotalAmount),
		zap.String("payment_method", string(order.PaymentMethod)),
	)
	return nil
}

func (s *orderService) List(ctx context.Context) ([]*domain.Order, error) {
	return s.orders.List(ctx)
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", repository.ErrInvalidStatus, status)
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		s.logger.Error("Failed to update order status",
			zap.String("order_id", id.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", id.String()),
		zap.String("status", string(status)),
	)
	return nil
}
