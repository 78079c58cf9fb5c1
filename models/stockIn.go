package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/utils"
	"gorm.io/gorm"
)

type StockInReceipt struct {
	ID            int             `gorm:"primary_key" json:"id"`
	ReceiptNumber string          `gorm:"size:50;not null;uniqueIndex" json:"receipt_number"`
	SequenceNo    int64           `gorm:"not null" json:"sequence_no"`
	Supplier      string          `gorm:"size:255" json:"supplier"`
	Note          string          `gorm:"type:text" json:"note"`
	TotalCost     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	ReceivedAt    time.Time       `gorm:"not null" json:"received_at"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Lines         []StockInLine   `gorm:"foreignKey:ReceiptId" json:"lines"`
}

// StockInLine is unique per (receipt, variant): receiving the same variant
// into the same receipt again merges into the existing line.
type StockInLine struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ReceiptId int             `gorm:"not null;index:uniq_receipt_variant,unique" json:"receipt_id"`
	VariantId int             `gorm:"not null;index:uniq_receipt_variant,unique" json:"variant_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStockIn struct {
	ReceiptId *int            `json:"receipt_id"`
	VariantId int             `json:"variant_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Supplier  string          `json:"supplier"`
	Note      string          `json:"note"`
}

func (input NewStockIn) validate() error {
	if input.Quantity <= 0 {
		return utils.ValidationError("quantity must be positive")
	}
	if input.UnitCost.IsNegative() {
		return utils.ValidationError("unit cost must not be negative")
	}
	return nil
}

// ReceiveStockIn records a received lot in one transaction: upsert the
// receipt line, increment variant stock, reweight the product cost basis
// from the pre-receipt snapshot, and add to the receipt total. No partial
// application of those steps is ever observable.
func ReceiveStockIn(ctx context.Context, input *NewStockIn) (*StockInReceipt, error) {
	db := config.GetDB()

	if err := input.validate(); err != nil {
		return nil, err
	}

	release := utils.StockLock(ctx, fmt.Sprintf("variant:%d", input.VariantId), "stockIn.go", "ReceiveStockIn")
	defer release()

	// receipt resolution and sequence allocation read on their own
	// connection, so they run before the transaction starts
	existingId, minted, err := planReceipt(ctx, input)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()

	receipt, err := resolveReceipt(ctx, tx, existingId, minted)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	variant, err := utils.FetchModelTx[ProductVariant](tx.WithContext(ctx), input.VariantId)
	if err != nil {
		tx.Rollback()
		return nil, utils.NotFoundError("variant not found")
	}

	// pre-receipt snapshot, before the stock increment below
	preStock, err := ProductStockTotal(tx.WithContext(ctx), variant.ProductId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := upsertStockInLine(ctx, tx, receipt.ID, input.VariantId, input.Quantity, input.UnitCost); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := ReleaseVariantStock(tx.WithContext(ctx), input.VariantId, input.Quantity); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := ReweightProductCost(tx.WithContext(ctx), variant.ProductId, input.Quantity, input.UnitCost, preStock); err != nil {
		tx.Rollback()
		return nil, err
	}

	lineCost := decimal.NewFromInt(int64(input.Quantity)).Mul(input.UnitCost)
	if err := tx.WithContext(ctx).Exec(
		"UPDATE stock_in_receipts SET total_cost = total_cost + ? WHERE id = ?",
		lineCost, receipt.ID,
	).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return utils.FetchModel[StockInReceipt](ctx, receipt.ID, "Lines")
}

// planReceipt decides which receipt the lot lands in, before the receiving
// transaction opens. An explicit id is passed through (existence is verified
// inside the transaction). Without one, the configured policy reuses the most
// recent receipt or prepares a fresh one with its sequence number already
// allocated.
func planReceipt(ctx context.Context, input *NewStockIn) (existingId int, minted *StockInReceipt, err error) {
	if input.ReceiptId != nil {
		return *input.ReceiptId, nil, nil
	}

	if config.StockInReceiptReusePolicy() == config.ReceiptReuseLatest {
		db := config.GetDB()
		var receipt StockInReceipt
		err := db.WithContext(ctx).Order("id DESC").First(&receipt).Error
		if err == nil {
			return receipt.ID, nil, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil, err
		}
	}

	seqNo, err := utils.GetSequence[StockInReceipt](ctx)
	if err != nil {
		return 0, nil, err
	}
	return 0, &StockInReceipt{
		ReceiptNumber: fmt.Sprintf("SI%06d", seqNo),
		SequenceNo:    seqNo,
		Supplier:      input.Supplier,
		Note:          input.Note,
		ReceivedAt:    time.Now().UTC(),
	}, nil
}

// resolveReceipt materializes the planned receipt inside the transaction.
func resolveReceipt(ctx context.Context, tx *gorm.DB, existingId int, minted *StockInReceipt) (*StockInReceipt, error) {
	if minted != nil {
		if err := tx.WithContext(ctx).Create(minted).Error; err != nil {
			return nil, err
		}
		return minted, nil
	}
	var receipt StockInReceipt
	if err := tx.WithContext(ctx).First(&receipt, existingId).Error; err != nil {
		return nil, utils.NotFoundError("stock-in receipt not found")
	}
	return &receipt, nil
}

// merge policy: quantity adds up, unit cost is replaced by the latest value.
// Only the product-level cost basis is averaged.
func upsertStockInLine(ctx context.Context, tx *gorm.DB, receiptId, variantId, qty int, unitCost decimal.Decimal) error {
	var line StockInLine
	err := tx.WithContext(ctx).
		Where("receipt_id = ? AND variant_id = ?", receiptId, variantId).
		First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		line = StockInLine{
			ReceiptId: receiptId,
			VariantId: variantId,
			Quantity:  qty,
			UnitCost:  unitCost,
		}
		return tx.WithContext(ctx).Create(&line).Error
	}
	if err != nil {
		return err
	}

	line.Quantity += qty
	line.UnitCost = unitCost
	return tx.WithContext(ctx).Save(&line).Error
}

// ReverseStockIn backs a received lot out again: receipt total and variant
// stock go down by the full line, the line is removed, and an emptied
// receipt is deleted. The product cost basis is deliberately left untouched;
// recomputing a historically accurate average after the fact is not
// supported.
func ReverseStockIn(ctx context.Context, receiptId int, variantId int) error {
	db := config.GetDB()

	release := utils.StockLock(ctx, fmt.Sprintf("variant:%d", variantId), "stockIn.go", "ReverseStockIn")
	defer release()

	tx := db.Begin()

	var line StockInLine
	if err := tx.WithContext(ctx).
		Where("receipt_id = ? AND variant_id = ?", receiptId, variantId).
		First(&line).Error; err != nil {
		tx.Rollback()
		return utils.NotFoundError("stock-in line not found")
	}

	lineCost := decimal.NewFromInt(int64(line.Quantity)).Mul(line.UnitCost)
	if err := tx.WithContext(ctx).Exec(
		"UPDATE stock_in_receipts SET total_cost = total_cost - ? WHERE id = ?",
		lineCost, receiptId,
	).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := ReverseVariantStock(tx.WithContext(ctx), variantId, line.Quantity); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.WithContext(ctx).Delete(&line).Error; err != nil {
		tx.Rollback()
		return err
	}

	var remaining int64
	if err := tx.WithContext(ctx).Model(&StockInLine{}).
		Where("receipt_id = ?", receiptId).
		Count(&remaining).Error; err != nil {
		tx.Rollback()
		return err
	}
	if remaining == 0 {
		if err := tx.WithContext(ctx).Delete(&StockInReceipt{}, receiptId).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	fields := logrus.Fields{
		"receipt_id": receiptId,
		"variant_id": variantId,
	}
	// reversal is destructive, so record who asked for it when known
	if staffId, ok := utils.GetStaffIdFromContext(ctx); ok {
		fields["staff_id"] = staffId
	}
	if role, ok := utils.GetStaffRoleFromContext(ctx); ok {
		fields["staff_role"] = role
	}
	config.GetLogger().WithFields(fields).
		Warn("stock-in line reversed; product cost basis left as-is")
	return nil
}

func GetStockInReceipt(ctx context.Context, id int) (*StockInReceipt, error) {
	receipt, err := utils.FetchModel[StockInReceipt](ctx, id, "Lines")
	if err != nil {
		return nil, utils.NotFoundError("stock-in receipt not found")
	}
	return receipt, nil
}

func GetStockInReceipts(ctx context.Context) ([]*StockInReceipt, error) {
	return utils.FetchAllModels[StockInReceipt](ctx, "Lines")
}
