package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"watermelon-stand/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the catalog store adapter. Writes are best-effort
// with at-most-once client semantics; the live feed reflects whatever landed.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Merge(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
}

type productRepository struct {
	db       *sql.DB
	appID    string
	notifier ChangeNotifier
}

// NewProductRepository creates a ProductRepository scoped to the given tenant.
func NewProductRepository(db *sql.DB, appID string, notifier ChangeNotifier) ProductRepository {
	return &productRepository{db: db, appID: appID, notifier: notifier}
}

// Create inserts a new product. The id is assigned here, never by the caller.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	product.ID = uuid.New()
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	query := `
		INSERT INTO products (id, app_id, name, description, price, stock, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		r.appID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.ImageURL,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.notifier.Changed(ctx, CollectionProducts)
	return nil
}

// Merge applies a replace-with-merge update: fields the patch does not
// mention keep their stored values. An empty patch still bumps updated_at,
// which is the store's own bookkeeping.
func (r *productRepository) Merge(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) error {
	query := `
		UPDATE products
		SET name = COALESCE($3, name),
		    description = COALESCE($4, description),
		    price = COALESCE($5, price),
		    stock = COALESCE($6, stock),
		    image_url = COALESCE($7, image_url),
		    updated_at = $8
		WHERE id = $1 AND app_id = $2
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		id,
		r.appID,
		patch.Name,
		patch.Description,
		patch.Price,
		patch.Stock,
		patch.ImageURL,
		time.Now().UTC(),
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	r.notifier.Changed(ctx, CollectionProducts)
	return nil
}

// Delete removes a product from the catalog.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1 AND app_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, r.appID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	r.notifier.Changed(ctx, CollectionProducts)
	return nil
}

// FindByID retrieves a single product. A NULL price reads as 0.
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, name, description, COALESCE(price, 0), stock, image_url, created_at, updated_at
		FROM products
		WHERE id = $1 AND app_id = $2
	`

	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id, r.appID).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.ImageURL,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List returns the full catalog snapshot for the tenant, name-ordered with a
// stable id tie-break.
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT id, name, description, COALESCE(price, 0), stock, image_url, created_at, updated_at
		FROM products
		WHERE app_id = $1
		ORDER BY name, id
	`

	rows, err := r.db.QueryContext(ctx, query, r.appID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product := &domain.Product{}
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			&product.Price,
			&product.Stock,
			&product.ImageURL,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
