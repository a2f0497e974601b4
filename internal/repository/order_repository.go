package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"watermelon-stand/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrOrderEmpty     = errors.New("order has no items")
	ErrInvalidStatus  = errors.New("invalid order status")
	ErrMissingIdemKey = errors.New("missing idempotency key")
)

// OrderRepository defines the order store adapter. The collection is
// append-only: orders are created and their status updated, never deleted.
type OrderRepository interface {
	// Create commits the order and fills in its id and store-assigned
	// creation timestamp. If an order with the same idempotency key was
	// already committed, that order is returned instead and alreadyExists
	// is true.
	Create(ctx context.Context, order *domain.Order) (alreadyExists bool, err error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// List returns all orders newest first; creation-time ties break on id
	// so the ordering is stable.
	List(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

type orderRepository struct {
	db       *sql.DB
	appID    string
	notifier ChangeNotifier
}

// NewOrderRepository creates an OrderRepository scoped to the given tenant.
func NewOrderRepository(db *sql.DB, appID string, notifier ChangeNotifier) OrderRepository {
	return &orderRepository{db: db, appID: appID, notifier: notifier}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) (bool, error) {
	if len(order.Items) == 0 {
		return false, ErrOrderEmpty
	}
	if order.IdempotencyKey == "" {
		return false, ErrMissingIdemKey
	}
	if !order.Status.Valid() {
		return false, ErrInvalidStatus
	}

	items, err := json.Marshal(order.Items)
	if err != nil {
		return false, fmt.Errorf("failed to encode order items: %w", err)
	}

	order.ID = uuid.New()

	// created_at comes from the store's clock so commit order and timestamp
	// order agree. The unique idempotency key turns a retried commit into a
	// read of the first one.
	query := `
		INSERT INTO orders (id, app_id, customer_name, customer_email, customer_address,
		                    items, total_amount, status, payment_method, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (app_id, idempotency_key) DO NOTHING
		RETURNING created_at
	`

	err = r.db.QueryRowContext(
		ctx,
		query,
		order.ID,
		r.appID,
		order.CustomerDetails.Name,
		order.CustomerDetails.Email,
		order.CustomerDetails.Address,
		items,
		order.TotalAmount,
		order.Status,
		order.PaymentMethod,
		order.IdempotencyKey,
	).Scan(&order.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		// Conflict: a previous attempt with this key already committed.
		existing, findErr := r.findByIdempotencyKey(ctx, order.IdempotencyKey)
		if findErr != nil {
			return false, findErr
		}
		*order = *existing
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create order: %w", err)
	}

	r.notifier.Changed(ctx, CollectionOrders)
	return false, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := selectOrderColumns + ` WHERE id = $1 AND app_id = $2`

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, id, r.appID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}
	return order, nil
}

func (r *orderRepository) findByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	query := selectOrderColumns + ` WHERE idempotency_key = $1 AND app_id = $2`

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, key, r.appID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by idempotency key: %w", err)
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	query := selectOrderColumns + `
		WHERE app_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, r.appID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	query := `UPDATE orders SET status = $3 WHERE id = $1 AND app_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, r.appID, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	r.notifier.Changed(ctx, CollectionOrders)
	return nil
}

const selectOrderColumns = `
	SELECT id, customer_name, customer_email, customer_address,
	       items, total_amount, status, payment_method, idempotency_key, created_at
	FROM orders`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *orderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var items []byte

	err := row.Scan(
		&order.ID,
		&order.CustomerDetails.Name,
		&order.CustomerDetails.Email,
		&order.CustomerDetails.Address,
		&items,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentMethod,
		&order.IdempotencyKey,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}

	return order, nil
}
