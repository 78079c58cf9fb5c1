package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/utils"
	"gorm.io/gorm"
)

const costPricePrecision = 4

// ComputeWeightedAverageCost blends the existing cost basis with a newly
// received lot, proportional to quantity. With no prior stock the lot's unit
// cost becomes the cost basis outright.
func ComputeWeightedAverageCost(oldStock int, oldCost decimal.Decimal, qtyReceived int, unitCost decimal.Decimal) decimal.Decimal {
	if oldStock <= 0 {
		return unitCost
	}
	oldQty := decimal.NewFromInt(int64(oldStock))
	newQty := decimal.NewFromInt(int64(qtyReceived))
	totalValue := oldQty.Mul(oldCost).Add(newQty.Mul(unitCost))
	return totalValue.DivRound(oldQty.Add(newQty), costPricePrecision)
}

// ProductStockTotal sums on-hand stock across every variant of the product.
// Must be read inside the receiving transaction, before the stock increment,
// for the weighted average to be well-defined.
func ProductStockTotal(tx *gorm.DB, productId int) (int, error) {
	var total *int
	err := tx.Model(&ProductVariant{}).
		Select("sum(stock_quantity)").
		Where("product_id = ?", productId).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// ReweightProductCost is the single writer of products.cost_price.
// preReceiptStock is the product-wide stock snapshot captured before the
// receiving increment ran.
func ReweightProductCost(tx *gorm.DB, productId int, qtyReceived int, unitCost decimal.Decimal, preReceiptStock int) error {
	if qtyReceived <= 0 {
		return utils.ValidationError("quantity must be positive")
	}

	var product Product
	if err := tx.First(&product, productId).Error; err != nil {
		return utils.NotFoundError(fmt.Sprintf("product %d not found", productId))
	}

	newCost := ComputeWeightedAverageCost(preReceiptStock, product.CostPrice, qtyReceived, unitCost)
	if err := tx.Model(&product).Update("cost_price", newCost).Error; err != nil {
		return err
	}
	// cached catalog reads must not keep serving the old cost basis
	if err := utils.RemoveRedisItem[Product](productId); err != nil {
		config.LogError(config.GetLogger(), "costBasis.go", "ReweightProductCost", "evict product cache", productId, err)
	}
	return nil
}
