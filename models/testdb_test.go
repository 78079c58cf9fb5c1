package models_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/models"
)

// setupTestDB points the global connection at a per-test in-memory sqlite
// database and migrates the schema. Tests that need real MySQL semantics
// (row locking under concurrency) use the docker-backed integration test
// instead.
func setupTestDB(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	t.Setenv("DB_NAME", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	config.ConnectDatabaseWithRetry()
	models.MigrateTable()
}

// seedSellableVariant creates a single-variant product and receives stock for
// it through the normal path, so cost basis is populated too.
func seedSellableVariant(t *testing.T, ctx context.Context, name string, stock int, basePrice, unitCost int64) (*models.Product, *models.ProductVariant) {
	t.Helper()
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:      name,
		Category:  "test",
		BasePrice: decimal.NewFromInt(basePrice),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if len(product.Variants) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(product.Variants))
	}
	variantId := product.Variants[0].ID

	if stock > 0 {
		if _, err := models.ReceiveStockIn(ctx, &models.NewStockIn{
			VariantId: variantId,
			Quantity:  stock,
			UnitCost:  decimal.NewFromInt(unitCost),
			Supplier:  "Test Supplier",
		}); err != nil {
			t.Fatalf("ReceiveStockIn: %v", err)
		}
	}

	variant, err := models.GetProductVariant(ctx, variantId)
	if err != nil {
		t.Fatalf("GetProductVariant: %v", err)
	}
	return product, variant
}

func seedCustomerAndStaff(t *testing.T, ctx context.Context) (*models.Customer, *models.Employee) {
	t.Helper()
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{
		Name:  "Test Customer",
		Phone: "0901234567",
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	staff, err := models.CreateEmployee(ctx, &models.NewEmployee{
		Name:     "Test Staff",
		Username: "staff",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	return customer, staff
}

func variantStock(t *testing.T, ctx context.Context, variantId int) int {
	t.Helper()
	variant, err := models.GetProductVariant(ctx, variantId)
	if err != nil {
		t.Fatalf("GetProductVariant: %v", err)
	}
	return variant.StockQuantity
}
