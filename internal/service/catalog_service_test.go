package service

import (
	"context"
	"errors"
	"testing"

	"watermelon-stand/internal/domain"
	"watermelon-stand/internal/logger"
	"watermelon-stand/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing
type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
	failNext error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	product.ID = uuid.New()
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Merge(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) error {
	stored, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if patch.Name != nil {
		stored.Name = *patch.Name
	}
	if patch.Description != nil {
		stored.Description = *patch.Description
	}
	if patch.Price != nil {
		stored.Price = *patch.Price
	}
	if patch.Stock != nil {
		stored.Stock = *patch.Stock
	}
	if patch.ImageURL != nil {
		stored.ImageURL = *patch.ImageURL
	}
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func validProduct() *domain.Product {
	return &domain.Product{
		Name:        "Watermelon Slice",
		Description: "A cold slice of watermelon",
		Price:       3.00,
		Stock:       25,
		ImageURL:    "https://example.com/slice.jpg",
	}
}

func TestCreateRejectsMissingFields(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewCatalogService(repo, logger.Nop())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*domain.Product)
	}{
		{"missing name", func(p *domain.Product) { p.Name = "" }},
		{"missing description", func(p *domain.Product) { p.Description = "" }},
		{"negative price", func(p *domain.Product) { p.Price = -1 }},
		{"negative stock", func(p *domain.Product) { p.Stock = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProduct()
			tc.mutate(p)
			err := svc.Create(ctx, p)
			if !errors.Is(err, ErrInvalidProduct) {
				t.Fatalf("expected ErrInvalidProduct, got %v", err)
			}
		})
	}

	if len(repo.products) != 0 {
		t.Errorf("expected no products stored, got %d", len(repo.products))
	}
}

func TestCreateStoresValidProduct(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewCatalogService(repo, logger.Nop())

	p := validProduct()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected an assigned id")
	}
	if len(repo.products) != 1 {
		t.Errorf("expected 1 stored product, got %d", len(repo.products))
	}
}

func TestCreateAllowsZeroPrice(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewCatalogService(repo, logger.Nop())

	p := validProduct()
	p.Price = 0
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("expected zero price to be accepted, got %v", err)
	}
}

func TestMergeAppliesOnlyMentionedFields(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewCatalogService(repo, logger.Nop())
	ctx := context.Background()

	p := validProduct()
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newPrice := 4.50
	updated, err := svc.Merge(ctx, p.ID, domain.ProductPatch{Price: &newPrice})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if updated.Price != 4.50 {
		t.Errorf("expected price 4.50, got %v", updated.Price)
	}
	if updated.Name != "Watermelon Slice" {
		t.Errorf("expected name untouched, got %q", updated.Name)
	}
	if updated.Stock != 25 {
		t.Errorf("expected stock untouched, got %d", updated.Stock)
	}
}

func TestMergeRejectsBadPatchValues(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewCatalogService(repo, logger.Nop())
	ctx := context.Background()

	p := validProduct()
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	empty := ""
	if _, err := svc.Merge(ctx, p.ID, domain.ProductPatch{Name: &empty}); !errors.Is(err, ErrInvalidProduct) {
		t.Errorf("expected ErrInvalidProduct for empty name, got %v", err)
	}

	negative := -0.01
	if _, err := svc.Merge(ctx, p.ID, domain.ProductPatch{Price: &negative}); !errors.Is(err, ErrInvalidProduct) {
		t.Errorf("expected ErrInvalidProduct for negative price, got %v", err)
	}
}

func TestMergeMissingProduct(t *testing.T) {
	svc := NewCatalogService(newMockProductRepository(), logger.Nop())

	price := 1.0
	_, err := svc.Merge(context.Background(), uuid.New(), domain.ProductPatch{Price: &price})
	if !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewCatalogService(repo, logger.Nop())
	ctx := context.Background()

	p := validProduct()
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Delete(ctx, p.ID, false); !errors.Is(err, ErrDeleteNotConfirmed) {
		t.Fatalf("expected ErrDeleteNotConfirmed, got %v", err)
	}
	if len(repo.products) != 1 {
		t.Error("expected product to survive an unconfirmed delete")
	}

	name, err := svc.Delete(ctx, p.ID, true)
	if err != nil {
		t.Fatalf("confirmed delete failed: %v", err)
	}
	if name != "Watermelon Slice" {
		t.Errorf("expected deleted name back, got %q", name)
	}
	if len(repo.products) != 0 {
		t.Error("expected product removed")
	}
}

func TestDeleteMissingProduct(t *testing.T) {
	svc := NewCatalogService(newMockProductRepository(), logger.Nop())

	_, err := svc.Delete(context.Background(), uuid.New(), true)
	if !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
