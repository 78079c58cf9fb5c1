package models

import (
	"log"

	"github.com/threadline/store_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Product{}, &ProductVariant{},
		&Customer{}, &Employee{},
		&Order{}, &OrderDetail{},
		&StockInReceipt{}, &StockInLine{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
