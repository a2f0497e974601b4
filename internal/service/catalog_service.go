package service

import (
	"context"
	"errors"
	"fmt"

	"watermelon-stand/internal/domain"
	"watermelon-stand/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrDeleteNotConfirmed = errors.New("delete requires confirmation")
	ErrInvalidProduct     = errors.New("invalid product")
)

// CatalogService implements the operator console's product management on top
// of the catalog store adapter.
type CatalogService interface {
	List(ctx context.Context) ([]*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Merge(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error)
	// Delete removes a product and returns its name for the notification.
	// It refuses to act unless the caller confirmed the deletion.
	Delete(ctx context.Context, id uuid.UUID, confirmed bool) (name string, err error)
}

type catalogService struct {
	products repository.ProductRepository
	logger   *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(products repository.ProductRepository, logger *zap.Logger) CatalogService {
	return &catalogService{products: products, logger: logger}
}

func (s *catalogService) List(ctx context.Context) ([]*domain.Product, error) {
	return s.products.List(ctx)
}

func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// Create stores a new product. Name and description must be present; price
// and stock must be non-negative. There is no uniqueness check on name.
func (s *catalogService) Create(ctx context.Context, product *domain.Product) error {
	if err := checkProduct(product.Name, product.Description, product.Price, product.Stock); err != nil {
		return err
	}

	if err := s.products.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product",
			zap.String("name", product.Name),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
	)
	return nil
}

// Merge applies a replace-with-merge edit and returns the updated record.
// Submitting unchanged fields leaves the stored record equal modulo the
// store's own bookkeeping.
func (s *catalogService) Merge(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error) {
	if patch.Name != nil && *patch.Name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidProduct)
	}
	if patch.Price != nil && *patch.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}

	if err := s.products.Merge(ctx, id, patch); err != nil {
		s.logger.Error("Failed to update product",
			zap.String("product_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return s.products.FindByID(ctx, id)
}

func (s *catalogService) Delete(ctx context.Context, id uuid.UUID, confirmed bool) (string, error) {
	if !confirmed {
		return "", ErrDeleteNotConfirmed
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.products.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete product",
			zap.String("product_id", id.String()),
			zap.Error(err),
		)
		return "", err
	}

	s.logger.Info("Product deleted",
		zap.String("product_id", id.String()),
		zap.String("name", product.Name),
	)
	return product.Name, nil
}

func checkProduct(name, description string, price float64, stock int) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidProduct)
	}
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	return nil
}
