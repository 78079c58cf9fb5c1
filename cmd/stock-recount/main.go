package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/models"
)

// Audits stock conservation: for every variant,
//
//	current stock = received - reserved by non-cancelled orders (+ seed)
//
// Variants created with initial stock carry a seed that was never received
// through a stock-in, so the report shows the residual rather than flagging
// every seeded variant. Use -fix to rewrite stock_quantity from the ledger
// view (destructive; take the service offline first).
func main() {
	fix := flag.Bool("fix", false, "rewrite stock_quantity from receipts minus active order reservations")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	var variants []models.ProductVariant
	if err := db.WithContext(ctx).Order("id").Find(&variants).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list variants: %v\n", err)
		os.Exit(1)
	}

	drift := 0
	for _, v := range variants {
		var received *int
		if err := db.WithContext(ctx).Model(&models.StockInLine{}).
			Select("sum(quantity)").
			Where("variant_id = ?", v.ID).
			Scan(&received).Error; err != nil {
			fmt.Fprintf(os.Stderr, "variant %d: %v\n", v.ID, err)
			os.Exit(1)
		}
		var reserved *int
		if err := db.WithContext(ctx).Model(&models.OrderDetail{}).
			Select("sum(order_details.quantity)").
			Joins("JOIN orders ON orders.id = order_details.order_id").
			Where("order_details.variant_id = ? AND orders.status <> ?", v.ID, models.OrderStatusCancelled).
			Scan(&reserved).Error; err != nil {
			fmt.Fprintf(os.Stderr, "variant %d: %v\n", v.ID, err)
			os.Exit(1)
		}

		rec, res := 0, 0
		if received != nil {
			rec = *received
		}
		if reserved != nil {
			res = *reserved
		}
		expected := rec - res
		residual := v.StockQuantity - expected

		fmt.Printf("variant %d (product %d, %s/%s): stock=%d received=%d reserved=%d residual=%d\n",
			v.ID, v.ProductId, v.Size, v.Color, v.StockQuantity, rec, res, residual)
		if residual != 0 {
			drift++
		}

		if *fix && expected >= 0 && v.StockQuantity != expected {
			if err := db.WithContext(ctx).Model(&models.ProductVariant{}).
				Where("id = ?", v.ID).
				Update("stock_quantity", expected).Error; err != nil {
				fmt.Fprintf(os.Stderr, "variant %d: fix failed: %v\n", v.ID, err)
				os.Exit(1)
			}
			fmt.Printf("variant %d: stock_quantity rewritten %d -> %d\n", v.ID, v.StockQuantity, expected)
		}
	}

	fmt.Printf("checked %d variants, %d with nonzero residual\n", len(variants), drift)
}
