package models

import (
	"fmt"

	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/utils"
	"gorm.io/gorm"
)

// Stock mutation funnels through the three functions below so all contention
// on a variant row goes through one code path. Each runs inside the caller's
// transaction; a rollback anywhere reverts the stock change too.

// ReserveVariantStock decrements on-hand stock to back an order line. The
// floor check and the decrement are a single conditional UPDATE so two
// concurrent reservations can never both succeed on the last unit.
func ReserveVariantStock(tx *gorm.DB, variantId int, qty int) error {
	if qty <= 0 {
		return utils.ValidationError("quantity must be positive")
	}
	res := tx.Exec(
		"UPDATE product_variants SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?",
		qty, variantId, qty,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		exists, err := variantExists(tx, variantId)
		if err != nil {
			return err
		}
		if !exists {
			return utils.NotFoundError(fmt.Sprintf("variant %d not found", variantId))
		}
		return utils.InsufficientStockError(fmt.Sprintf("insufficient stock for variant %d", variantId))
	}
	return nil
}

// ReleaseVariantStock returns reserved stock to availability (order
// cancellation/edit) or adds newly received stock. There is no upper bound.
func ReleaseVariantStock(tx *gorm.DB, variantId int, qty int) error {
	if qty <= 0 {
		return utils.ValidationError("quantity must be positive")
	}
	res := tx.Exec(
		"UPDATE product_variants SET stock_quantity = stock_quantity + ? WHERE id = ?",
		qty, variantId,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.NotFoundError(fmt.Sprintf("variant %d not found", variantId))
	}
	return nil
}

// ReverseVariantStock backs stock out for a stock-in reversal. Unlike
// reservation, going below zero here means the received stock was already
// sold or the rows were tampered with, so it fails as a data-integrity fault
// rather than a normal business error.
func ReverseVariantStock(tx *gorm.DB, variantId int, qty int) error {
	if qty <= 0 {
		return utils.ValidationError("quantity must be positive")
	}
	res := tx.Exec(
		"UPDATE product_variants SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?",
		qty, variantId, qty,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		exists, err := variantExists(tx, variantId)
		if err != nil {
			return err
		}
		if !exists {
			return utils.NotFoundError(fmt.Sprintf("variant %d not found", variantId))
		}
		err = utils.InvalidStateError(fmt.Sprintf("reversing %d units would drive variant %d stock negative", qty, variantId))
		config.LogError(config.GetLogger(), "variantStock.go", "ReverseVariantStock",
			"stock reversal would go negative; possible concurrent bug or manual data change", variantId, err)
		return err
	}
	return nil
}

func variantExists(tx *gorm.DB, variantId int) (bool, error) {
	var count int64
	if err := tx.Model(&ProductVariant{}).Where("id = ?", variantId).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
