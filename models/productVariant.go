package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/utils"
)

type ProductVariant struct {
	ID        int    `gorm:"primary_key" json:"id"`
	ProductId int    `gorm:"index;not null" json:"product_id" binding:"required"`
	Color     string `gorm:"size:50;not null;default:'default'" json:"color"`
	Size      string `gorm:"size:50;not null;default:'default'" json:"size"`
	// StockQuantity is mutated only through the stock functions in
	// variantStock.go; it never goes negative.
	StockQuantity   int             `gorm:"not null;default:0" json:"stock_quantity"`
	AdditionalPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"additional_price"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProductVariant struct {
	Color           string          `json:"color"`
	Size            string          `json:"size"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
}

// EffectivePrice is the sell price: product base price plus the variant delta.
func (v ProductVariant) EffectivePrice(product *Product) decimal.Decimal {
	return product.BasePrice.Add(v.AdditionalPrice)
}

func GetProductVariant(ctx context.Context, id int) (*ProductVariant, error) {
	variant, err := utils.FetchModel[ProductVariant](ctx, id)
	if err != nil {
		return nil, utils.NotFoundError("variant not found")
	}
	return variant, nil
}

func GetProductVariants(ctx context.Context, productId int) ([]*ProductVariant, error) {
	db := config.GetDB()
	var results []*ProductVariant
	err := db.WithContext(ctx).Where("product_id = ?", productId).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
