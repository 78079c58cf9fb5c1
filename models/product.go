package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/utils"
)

type Product struct {
	ID        int              `gorm:"primary_key" json:"id"`
	Name      string           `gorm:"size:255;not null" json:"name" binding:"required"`
	Category  string           `gorm:"size:100;index" json:"category"`
	BasePrice decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"base_price"`
	// CostPrice is the running weighted-average unit cost. It is written
	// only by ReweightProductCost; every other caller is read-only.
	CostPrice decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	Material  string           `gorm:"size:100" json:"material"`
	IsActive  *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductId" json:"variants"`
}

type NewProduct struct {
	Name      string          `json:"name" binding:"required"`
	Category  string          `json:"category"`
	BasePrice decimal.Decimal `json:"base_price"`
	Material  string          `json:"material"`
	IsActive  *bool           `json:"is_active"`
	// Sizes x Colors generates one variant per combination. When both are
	// empty a single default variant is created, optionally seeded with
	// InitialStock.
	Sizes        []string        `json:"sizes"`
	Colors       []string        `json:"colors"`
	InitialStock int             `json:"initial_stock"`
	Variants     []NewProductVariant `json:"variants"`
}

func (input NewProduct) validate() error {
	if input.BasePrice.IsNegative() {
		return utils.ValidationError("base price must not be negative")
	}
	if input.InitialStock < 0 {
		return utils.ValidationError("initial stock must not be negative")
	}
	if input.InitialStock > 0 && (len(input.Sizes) > 0 || len(input.Colors) > 0) {
		return utils.ValidationError("initial stock is only supported for a single default variant")
	}
	for _, v := range input.Variants {
		if v.AdditionalPrice.IsNegative() {
			return utils.ValidationError("additional price must not be negative")
		}
	}
	return nil
}

// CreateProduct creates the product together with its variant matrix.
// Explicit Variants win over the Sizes x Colors expansion; with neither, a
// single default variant is created so the product is immediately sellable.
func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	if err := input.validate(); err != nil {
		return nil, err
	}

	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewTrue()
	}

	product := Product{
		Name:      input.Name,
		Category:  input.Category,
		BasePrice: input.BasePrice,
		Material:  input.Material,
		IsActive:  isActive,
	}

	switch {
	case len(input.Variants) > 0:
		for _, v := range input.Variants {
			product.Variants = append(product.Variants, ProductVariant{
				Color:           v.Color,
				Size:            v.Size,
				AdditionalPrice: v.AdditionalPrice,
				StockQuantity:   0,
			})
		}
	case len(input.Sizes) > 0 || len(input.Colors) > 0:
		product.Variants = expandVariantMatrix(input.Sizes, input.Colors)
	default:
		product.Variants = []ProductVariant{{
			Color:         "default",
			Size:          "default",
			StockQuantity: input.InitialStock,
		}}
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &product, nil
}

func expandVariantMatrix(sizes, colors []string) []ProductVariant {
	if len(sizes) == 0 {
		sizes = []string{"default"}
	}
	if len(colors) == 0 {
		colors = []string{"default"}
	}
	variants := make([]ProductVariant, 0, len(sizes)*len(colors))
	for _, size := range sizes {
		for _, color := range colors {
			variants = append(variants, ProductVariant{
				Size:          size,
				Color:         color,
				StockQuantity: 0,
			})
		}
	}
	return variants
}

// GetProduct serves catalog reads through the redis cache. Cached payloads
// can show variant stock up to CACHE_LIFESPAN stale; the sell path prices
// and reserves inside its own transaction and never reads this cache.
func GetProduct(ctx context.Context, id int) (*Product, error) {
	result, err := utils.RetrieveRedis[Product](id)
	if err != nil {
		return nil, err
	}

	if result == nil {
		result, err = utils.FetchModel[Product](ctx, id, "Variants")
		if err != nil {
			return nil, err
		}
		// caching
		if err := utils.StoreRedis[Product](result, id); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func GetProducts(ctx context.Context, category *string) ([]*Product, error) {
	db := config.GetDB()
	var results []*Product

	dbCtx := db.WithContext(ctx).Preload("Variants")
	if category != nil && *category != "" {
		dbCtx = dbCtx.Where("category = ?", *category)
	}

	err := dbCtx.Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateProductBasePrice changes the catalog price. Existing orders keep
// their snapshotted price_at_order.
func UpdateProductBasePrice(ctx context.Context, id int, basePrice decimal.Decimal) (*Product, error) {
	if basePrice.IsNegative() {
		return nil, utils.ValidationError("base price must not be negative")
	}
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, utils.NotFoundError("product not found")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(product).Update("base_price", basePrice).Error; err != nil {
		return nil, err
	}
	// the write is committed; a failed eviction must not fail the request
	if err := utils.RemoveRedisItem[Product](id); err != nil {
		config.LogError(config.GetLogger(), "product.go", "UpdateProductBasePrice", "evict product cache", id, err)
	}
	product.BasePrice = basePrice
	return product, nil
}
