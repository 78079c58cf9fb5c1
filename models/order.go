package models

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/utils"
	"gorm.io/gorm"
)

type Order struct {
	ID              int             `gorm:"primary_key" json:"id"`
	OrderNumber     string          `gorm:"size:50;not null;uniqueIndex" json:"order_number"`
	SequenceNo      int64           `gorm:"not null" json:"sequence_no"`
	CustomerId      int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	StaffId         int             `gorm:"index;not null" json:"staff_id" binding:"required"`
	DeliveryStaffId *int            `gorm:"index" json:"delivery_staff_id"`
	Channel         OrderChannel    `gorm:"size:20;not null;default:'Online'" json:"channel"`
	Status          OrderStatus     `gorm:"size:20;not null;default:'Pending'" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"size:20;not null;default:'Unpaid'" json:"payment_status"`
	PaymentMethod   PaymentMethod   `gorm:"size:20" json:"payment_method"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	ShippingCost    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"shipping_cost"`
	FinalTotal      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"final_total"`
	CompletedDate   *time.Time      `json:"completed_date"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Details         []OrderDetail   `gorm:"foreignKey:OrderId" json:"details"`
}

// OrderDetail is unique per (order, variant): repeated variants in one
// request are merged before the rows are written.
type OrderDetail struct {
	ID        int `gorm:"primary_key" json:"id"`
	OrderId   int `gorm:"not null;index:uniq_order_variant,unique" json:"order_id"`
	VariantId int `gorm:"not null;index:uniq_order_variant,unique" json:"variant_id" binding:"required"`
	Quantity  int `gorm:"not null" json:"quantity" binding:"required"`
	// PriceAtOrder is snapshotted at commit time and never rewritten;
	// later catalog price changes do not touch existing orders.
	PriceAtOrder decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price_at_order"`
}

type NewOrder struct {
	CustomerPhone string           `json:"customer_phone" binding:"required"`
	StaffId       int              `json:"staff_id" binding:"required"`
	Channel       OrderChannel     `json:"channel"`
	IsDirectSale  *bool            `json:"is_direct_sale"`
	ShippingCost  decimal.Decimal  `json:"shipping_cost"`
	PaymentMethod PaymentMethod    `json:"payment_method"`
	Notes         string           `json:"notes"`
	Details       []NewOrderDetail `json:"details" binding:"required,dive"`
}

type NewOrderDetail struct {
	VariantId int `json:"variant_id" binding:"required"`
	Quantity  int `json:"quantity" binding:"required"`
	// PriceAtOrder overrides the server-computed price (discounts); the
	// variant is still looked up and verified either way.
	PriceAtOrder *decimal.Decimal `json:"price_at_order"`
}

type UpdateOrderInput struct {
	ShippingCost    decimal.Decimal  `json:"shipping_cost"`
	PaymentMethod   *PaymentMethod   `json:"payment_method"`
	DeliveryStaffId *int             `json:"delivery_staff_id"`
	Notes           *string          `json:"notes"`
	Details         []NewOrderDetail `json:"details" binding:"required,dive"`
}

func validateOrderLines(details []NewOrderDetail, shippingCost decimal.Decimal) error {
	if len(details) == 0 {
		return utils.ValidationError("order must have at least one line")
	}
	if shippingCost.IsNegative() {
		return utils.ValidationError("shipping cost must not be negative")
	}
	for _, d := range details {
		if d.Quantity <= 0 {
			return utils.ValidationError("quantity must be positive")
		}
		if d.PriceAtOrder != nil && d.PriceAtOrder.IsNegative() {
			return utils.ValidationError("price must not be negative")
		}
	}
	return nil
}

func (input NewOrder) validate(ctx context.Context) error {
	if err := validateOrderLines(input.Details, input.ShippingCost); err != nil {
		return err
	}
	if input.Channel != "" && !input.Channel.IsValid() {
		return utils.ValidationError("invalid order channel")
	}
	if err := utils.ValidateResourceId[Employee](ctx, input.StaffId); err != nil {
		return utils.NotFoundError("staff not found")
	}
	return validateOrderVariants(ctx, input.Details)
}

// validateOrderVariants rejects the request up front when any referenced
// variant is missing. The in-transaction lookups stay authoritative.
func validateOrderVariants(ctx context.Context, details []NewOrderDetail) error {
	ids := make([]int, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.VariantId)
	}
	if err := utils.ValidateResourcesId[ProductVariant](ctx, ids); err != nil {
		return utils.NotFoundError("one or more variants not found")
	}
	return nil
}

// sortedByVariant merges repeated variants into one line (quantities add up,
// the latest price override wins, same as the stock-in line merge) and orders
// the result by variant id so every multi-line mutation touches variant rows
// in the same order. Two orders over overlapping variant sets then cannot
// deadlock each other.
func sortedByVariant(details []NewOrderDetail) []NewOrderDetail {
	index := make(map[int]int, len(details))
	out := make([]NewOrderDetail, 0, len(details))
	for _, d := range details {
		if i, ok := index[d.VariantId]; ok {
			out[i].Quantity += d.Quantity
			if d.PriceAtOrder != nil {
				out[i].PriceAtOrder = d.PriceAtOrder
			}
			continue
		}
		index[d.VariantId] = len(out)
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariantId < out[j].VariantId })
	return out
}

// priceOrderLines prices each requested line against the current catalog
// (base price + variant delta, unless overridden) and builds the detail
// rows. Reads go through tx so they are transaction-fresh.
func priceOrderLines(ctx context.Context, tx *gorm.DB, orderId int, details []NewOrderDetail) ([]OrderDetail, decimal.Decimal, error) {
	var rows []OrderDetail
	subtotal := decimal.Zero

	for _, line := range details {
		variant, err := utils.FetchModelTx[ProductVariant](tx.WithContext(ctx), line.VariantId)
		if err != nil {
			return nil, decimal.Zero, utils.NotFoundError(fmt.Sprintf("variant %d not found", line.VariantId))
		}
		product, err := utils.FetchModelTx[Product](tx.WithContext(ctx), variant.ProductId)
		if err != nil {
			return nil, decimal.Zero, utils.NotFoundError(fmt.Sprintf("product %d not found", variant.ProductId))
		}

		price := variant.EffectivePrice(product)
		if line.PriceAtOrder != nil {
			price = *line.PriceAtOrder
		}

		rows = append(rows, OrderDetail{
			OrderId:      orderId,
			VariantId:    line.VariantId,
			Quantity:     line.Quantity,
			PriceAtOrder: price,
		})
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return rows, subtotal, nil
}

// CreateOrder prices, validates, and commits the order as one atomic unit.
// Any failure (missing variant, insufficient stock) rolls back every
// reservation already made for this order.
func CreateOrder(ctx context.Context, input *NewOrder) (*Order, error) {
	db := config.GetDB()

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	customer, err := GetCustomerByPhone(ctx, input.CustomerPhone)
	if err != nil {
		return nil, err
	}

	channel := input.Channel
	if channel == "" {
		channel = OrderChannelOnline
	}
	isDirect := utils.DereferencePtr(input.IsDirectSale) || channel == OrderChannelDirect

	order := Order{
		CustomerId:    customer.ID,
		StaffId:       input.StaffId,
		Channel:       channel,
		Status:        OrderStatusPending,
		PaymentStatus: PaymentStatusUnpaid,
		PaymentMethod: input.PaymentMethod,
		ShippingCost:  input.ShippingCost,
		Notes:         input.Notes,
	}
	// direct/in-store sales are settled on the spot
	if isDirect {
		now := time.Now().UTC()
		order.Status = OrderStatusCompleted
		order.PaymentStatus = PaymentStatusPaid
		order.CompletedDate = &now
	}

	// sequence allocation runs on its own connection, so it stays outside
	// the transaction
	seqNo, err := utils.GetSequence[Order](ctx)
	if err != nil {
		return nil, err
	}
	order.SequenceNo = seqNo
	order.OrderNumber = fmt.Sprintf("ORD%06d", seqNo)

	tx := db.Begin()

	lines := sortedByVariant(input.Details)
	details, subtotal, err := priceOrderLines(ctx, tx, 0, lines)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	order.Subtotal = subtotal
	order.FinalTotal = subtotal.Add(order.ShippingCost)
	order.Details = details

	if err := tx.WithContext(ctx).Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// the only path by which placing an order reduces stock
	for _, detail := range order.Details {
		if err := ReserveVariantStock(tx.WithContext(ctx), detail.VariantId, detail.Quantity); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &order, nil
}

// UpdateOrder replaces the order's lines wholesale: release the old
// reservations, delete the old lines, then re-price, re-insert, and
// re-reserve the new ones. The full replacement keeps price snapshots
// freshly verified and avoids partial-diff bugs.
func UpdateOrder(ctx context.Context, orderId int, input *UpdateOrderInput) (*Order, error) {
	db := config.GetDB()

	if err := validateOrderLines(input.Details, input.ShippingCost); err != nil {
		return nil, err
	}
	if err := validateOrderVariants(ctx, input.Details); err != nil {
		return nil, err
	}

	order, err := utils.FetchModel[Order](ctx, orderId, "Details")
	if err != nil {
		return nil, utils.NotFoundError("order not found")
	}
	if order.Status == OrderStatusCancelled {
		// its reservations were already released at cancellation
		return nil, utils.InvalidStateError("cannot edit a cancelled order")
	}
	if input.DeliveryStaffId != nil {
		if err := utils.ValidateResourceId[Employee](ctx, *input.DeliveryStaffId); err != nil {
			return nil, utils.NotFoundError("delivery staff not found")
		}
	}

	tx := db.Begin()

	// release old reservations, variants in id order
	oldDetails := make([]OrderDetail, len(order.Details))
	copy(oldDetails, order.Details)
	sort.Slice(oldDetails, func(i, j int) bool { return oldDetails[i].VariantId < oldDetails[j].VariantId })
	for _, detail := range oldDetails {
		if err := ReleaseVariantStock(tx.WithContext(ctx), detail.VariantId, detail.Quantity); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.WithContext(ctx).Where("order_id = ?", orderId).Delete(&OrderDetail{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	lines := sortedByVariant(input.Details)
	details, subtotal, err := priceOrderLines(ctx, tx, orderId, lines)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Create(&details).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, detail := range details {
		if err := ReserveVariantStock(tx.WithContext(ctx), detail.VariantId, detail.Quantity); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	order.Subtotal = subtotal
	order.ShippingCost = input.ShippingCost
	order.FinalTotal = subtotal.Add(input.ShippingCost)
	if input.PaymentMethod != nil {
		order.PaymentMethod = *input.PaymentMethod
	}
	if input.DeliveryStaffId != nil {
		order.DeliveryStaffId = input.DeliveryStaffId
	}
	if input.Notes != nil {
		order.Notes = *input.Notes
	}
	order.Details = details

	if err := tx.WithContext(ctx).Omit("Details").Save(order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return order, nil
}

// DeleteOrder physically removes the order after releasing its stock. Meant
// for correcting data-entry mistakes, not the normal lifecycle; cancelled
// orders keep their lines as history and their stock was already released.
func DeleteOrder(ctx context.Context, orderId int) (*Order, error) {
	db := config.GetDB()

	order, err := utils.FetchModel[Order](ctx, orderId, "Details")
	if err != nil {
		return nil, utils.NotFoundError("order not found")
	}

	tx := db.Begin()

	if order.Status != OrderStatusCancelled {
		details := make([]OrderDetail, len(order.Details))
		copy(details, order.Details)
		sort.Slice(details, func(i, j int) bool { return details[i].VariantId < details[j].VariantId })
		for _, detail := range details {
			if err := ReleaseVariantStock(tx.WithContext(ctx), detail.VariantId, detail.Quantity); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := tx.WithContext(ctx).Model(order).Association("Details").Unscoped().Clear(); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return order, nil
}

func GetOrder(ctx context.Context, id int) (*Order, error) {
	order, err := utils.FetchModel[Order](ctx, id, "Details")
	if err != nil {
		return nil, utils.NotFoundError("order not found")
	}
	return order, nil
}

func GetOrders(ctx context.Context, customerId *int, status *OrderStatus) ([]*Order, error) {
	db := config.GetDB()
	var results []*Order

	dbCtx := db.WithContext(ctx).Preload("Details")
	if customerId != nil && *customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", *customerId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}

	err := dbCtx.Order("id DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
