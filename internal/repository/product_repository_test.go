package repository

import (
	"context"
	"errors"
	"testing"

	"watermelon-stand/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func seedProduct(t *testing.T, repo ProductRepository, name string, price float64) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Name:        name,
		Description: "seeded for testing",
		Price:       price,
		Stock:       10,
		ImageURL:    "https://example.com/p.jpg",
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return p
}

func TestProperty_ProductCreationPreservesAttributes(t *testing.T) {
	clearTables(t)
	repo := NewProductRepository(testDB, testAppID, NopNotifier{})

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
		func(name string, description string, price float64, stock int) bool {
			ctx := context.Background()

			product := &domain.Product{
				Name:        name,
				Description: description,
				Price:       price,
				Stock:       stock,
				ImageURL:    "https://example.com/img.jpg",
			}

			if err := repo.Create(ctx, product); err != nil {
				t.Logf("FAIL: create returned %v", err)
				return false
			}

			stored, err := repo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: find returned %v", err)
				return false
			}

			if stored.Name != name || stored.Description != description {
				t.Logf("FAIL: identity fields changed: %+v", stored)
				return false
			}
			if stored.Stock != stock {
				t.Logf("FAIL: stock %d != %d", stored.Stock, stock)
				return false
			}
			// DECIMAL(10,2) rounds to cents
			diff := stored.Price - price
			if diff < -0.005 || diff > 0.005 {
				t.Logf("FAIL: price %v drifted from %v", stored.Price, price)
				return false
			}
			return true
		},
		gen.RegexMatch(`[A-Za-z ]{3,40}`),
		gen.RegexMatch(`[A-Za-z ]{3,80}`),
		gen.Float64Range(0, 9999),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestMergeKeepsUnmentionedFields(t *testing.T) {
	clearTables(t)
	repo := NewProductRepository(testDB, testAppID, NopNotifier{})
	ctx := context.Background()

	p := seedProduct(t, repo, "Watermelon Slice", 3.00)

	newPrice := 4.50
	if err := repo.Merge(ctx, p.ID, domain.ProductPatch{Price: &newPrice}); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	stored, err := repo.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Price != 4.50 {
		t.Errorf("expected price 4.50, got %v", stored.Price)
	}
	if stored.Name != "Watermelon Slice" {
		t.Errorf("expected name untouched, got %q", stored.Name)
	}
	if stored.Description != p.Description || stored.Stock != p.Stock || stored.ImageURL != p.ImageURL {
		t.Errorf("expected unmentioned fields untouched, got %+v", stored)
	}
	if !stored.UpdatedAt.After(p.UpdatedAt) {
		t.Error("expected updated_at bumped by the merge")
	}
}

func TestMergeEmptyPatchOnlyBumpsBookkeeping(t *testing.T) {
	clearTables(t)
	repo := NewProductRepository(testDB, testAppID, NopNotifier{})
	ctx := context.Background()

	p := seedProduct(t, repo, "Watermelon Slice", 3.00)

	if err := repo.Merge(ctx, p.ID, domain.ProductPatch{}); err != nil {
		t.Fatalf("empty Merge failed: %v", err)
	}

	stored, err := repo.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Name != p.Name || stored.Price != p.Price || stored.Stock != p.Stock {
		t.Errorf("expected record unchanged apart from bookkeeping, got %+v", stored)
	}
}

func TestMergeMissingProductReturnsNotFound(t *testing.T) {
	clearTables(t)
	repo := NewProductRepository(testDB, testAppID, NopNotifier{})

	name := "ghost"
	err := repo.Merge(context.Background(), uuid.New(), domain.ProductPatch{Name: &name})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDeleteRemovesProduct(t *testing.T) {
	clearTables(t)
	repo := NewProductRepository(testDB, testAppID, NopNotifier{})
	ctx := context.Background()

	p := seedProduct(t, repo, "Watermelon Slice", 3.00)

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.FindByID(ctx, p.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, p.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound on repeated delete, got %v", err)
	}
}

func TestListIsTenantScopedAndNameOrdered(t *testing.T) {
	clearTables(t)
	ctx := context.Background()

	repo := NewProductRepository(testDB, testAppID, NopNotifier{})
	other := NewProductRepository(testDB, "other-app", NopNotifier{})

	seedProduct(t, repo, "Lemonade", 2.00)
	seedProduct(t, repo, "Watermelon Slice", 3.00)
	seedProduct(t, repo, "Ice Cup", 1.00)
	seedProduct(t, other, "Foreign Item", 9.99)

	products, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products for tenant, got %d", len(products))
	}
	want := []string{"Ice Cup", "Lemonade", "Watermelon Slice"}
	for i, name := range want {
		if products[i].Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, products[i].Name)
		}
	}
}

func TestWritesSignalTheChangeNotifier(t *testing.T) {
	clearTables(t)
	notifier := &recordingNotifier{}
	repo := NewProductRepository(testDB, testAppID, notifier)
	ctx := context.Background()

	p := &domain.Product{Name: "Watermelon Slice", Description: "d", Price: 3.00}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	stock := 5
	if err := repo.Merge(ctx, p.ID, domain.ProductPatch{Stock: &stock}); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if notifier.count() != 3 {
		t.Errorf("expected 3 change signals, got %d", notifier.count())
	}
	for _, collection := range notifier.signals {
		if collection != CollectionProducts {
			t.Errorf("expected products signal, got %q", collection)
		}
	}
}

func TestReadsDoNotSignal(t *testing.T) {
	clearTables(t)
	notifier := &recordingNotifier{}
	repo := NewProductRepository(testDB, testAppID, notifier)
	ctx := context.Background()

	p := seedProduct(t, NewProductRepository(testDB, testAppID, NopNotifier{}), "Watermelon Slice", 3.00)

	if _, err := repo.FindByID(ctx, p.ID); err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if _, err := repo.List(ctx); err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if notifier.count() != 0 {
		t.Errorf("expected no signals from reads, got %d", notifier.count())
	}
}
