package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/models"
	"github.com/threadline/store_backend/utils"
)

// Seeds a development database with an admin login, a small catalog, a
// customer, and opening stock. Safe to re-run: existing usernames and phones
// are skipped.
func main() {
	adminPassword := flag.String("admin-password", "admin123", "password for the seeded admin user")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	if _, err := models.CreateEmployee(ctx, &models.NewEmployee{
		Name:     "Admin",
		Username: "admin",
		Role:     models.StaffRoleAdmin,
		Password: *adminPassword,
	}); err != nil {
		if utils.KindOf(err) != utils.ErrorKindValidation {
			fmt.Fprintf(os.Stderr, "seed admin: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("admin already exists, skipping")
	} else {
		fmt.Println("seeded admin (username: admin)")
	}

	products := []models.NewProduct{
		{
			Name:      "Linen Shirt",
			Category:  "shirts",
			BasePrice: decimal.NewFromInt(350000),
			Material:  "linen",
			Sizes:     []string{"S", "M", "L"},
			Colors:    []string{"white", "navy"},
		},
		{
			Name:      "Denim Jacket",
			Category:  "jackets",
			BasePrice: decimal.NewFromInt(780000),
			Material:  "denim",
			Sizes:     []string{"M", "L"},
			Colors:    []string{"indigo"},
		},
		{
			Name:         "Canvas Tote",
			Category:     "accessories",
			BasePrice:    decimal.NewFromInt(120000),
			Material:     "canvas",
			InitialStock: 20,
		},
	}
	for i := range products {
		product, err := models.CreateProduct(ctx, &products[i])
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed product %q: %v\n", products[i].Name, err)
			os.Exit(1)
		}
		fmt.Printf("seeded product %d %q with %d variants\n", product.ID, product.Name, len(product.Variants))

		// opening stock through the normal receiving path so cost basis is set
		for _, variant := range product.Variants {
			if variant.StockQuantity > 0 {
				continue
			}
			unitCost := product.BasePrice.Div(decimal.NewFromInt(2))
			if _, err := models.ReceiveStockIn(ctx, &models.NewStockIn{
				VariantId: variant.ID,
				Quantity:  10,
				UnitCost:  unitCost,
				Supplier:  "Opening Stock",
			}); err != nil {
				fmt.Fprintf(os.Stderr, "seed stock for variant %d: %v\n", variant.ID, err)
				os.Exit(1)
			}
		}
	}

	if _, err := models.CreateCustomer(ctx, &models.NewCustomer{
		Name:    "Walk-in Customer",
		Phone:   "0901234567",
		Address: "12 Nguyen Hue, District 1",
	}); err != nil {
		if utils.KindOf(err) != utils.ErrorKindValidation {
			fmt.Fprintf(os.Stderr, "seed customer: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("customer already exists, skipping")
	} else {
		fmt.Println("seeded customer 0901234567")
	}

	fmt.Println("done")
}
