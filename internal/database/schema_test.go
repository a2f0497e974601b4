package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationFilesExist(t *testing.T) {
	migrationsDir := "../../migrations"

	// Check if migrations directory exists
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	// Expected migration files
	expectedMigrations := []string{
		"00001_create_products_table.sql",
		"00002_create_orders_table.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	migrationsDir := "../../migrations"

	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", file.Name(), err)
			continue
		}

		contentStr := string(content)

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(contentStr, directive) {
				t.Errorf("Migration file %s missing %q directive", file.Name(), directive)
			}
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestOrdersSchemaEnforcesStoreSemantics(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("../../migrations", "00002_create_orders_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read orders migration: %v", err)
	}
	schema := string(content)

	// The store assigns creation time with its own clock
	if !strings.Contains(schema, "DEFAULT clock_timestamp()") {
		t.Error("Orders schema must default created_at to the store clock")
	}

	// A retried submission must not commit a second order
	if !strings.Contains(schema, "UNIQUE (app_id, idempotency_key)") {
		t.Error("Orders schema must enforce the per-tenant idempotency key")
	}

	// Empty orders are impossible at the storage layer too
	if !strings.Contains(schema, "jsonb_array_length(items) > 0") {
		t.Error("Orders schema must reject empty item arrays")
	}
}

func TestProductsSchemaAllowsMissingPrice(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("../../migrations", "00001_create_products_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read products migration: %v", err)
	}
	schema := string(content)

	if !strings.Contains(schema, "price DECIMAL(10, 2),") {
		t.Error("Products schema must keep price nullable; readers coalesce to 0")
	}
	if !strings.Contains(schema, "price IS NULL OR price >= 0") {
		t.Error("Products schema must reject negative prices")
	}
}
