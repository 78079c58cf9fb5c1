package models

import (
	"context"
	"fmt"
	"time"

	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/utils"
)

// UpdateOrderStatus moves the order through its lifecycle. Completed and
// Cancelled are terminal; the transition table in enums.go is the single
// authority on what is allowed.
func UpdateOrderStatus(ctx context.Context, orderId int, newStatus OrderStatus) (*Order, error) {
	db := config.GetDB()

	if !newStatus.IsValid() {
		return nil, utils.ValidationError(fmt.Sprintf("invalid order status %q", newStatus))
	}

	order, err := utils.FetchModel[Order](ctx, orderId, "Details")
	if err != nil {
		return nil, utils.NotFoundError("order not found")
	}

	oldStatus := order.Status
	if !CanTransitionOrderStatus(oldStatus, newStatus) {
		return nil, utils.InvalidStateError(
			fmt.Sprintf("cannot transition order from %s to %s", oldStatus, newStatus))
	}

	tx := db.Begin()

	order.Status = newStatus
	if newStatus == OrderStatusCompleted && order.CompletedDate == nil {
		now := time.Now().UTC()
		order.CompletedDate = &now
	}

	if err := tx.WithContext(ctx).Omit("Details").Save(order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := ApplyOrderStockForStatusTransition(ctx, tx, order, oldStatus, newStatus); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateOrderPaymentStatus moves the payment axis. Payment never touches
// stock; marking Paid stamps the completion date if fulfilment has not
// already done so.
func UpdateOrderPaymentStatus(ctx context.Context, orderId int, newStatus PaymentStatus) (*Order, error) {
	db := config.GetDB()

	if !newStatus.IsValid() {
		return nil, utils.ValidationError(fmt.Sprintf("invalid payment status %q", newStatus))
	}

	order, err := utils.FetchModel[Order](ctx, orderId, "Details")
	if err != nil {
		return nil, utils.NotFoundError("order not found")
	}

	if !CanTransitionPaymentStatus(order.PaymentStatus, newStatus) {
		return nil, utils.InvalidStateError(
			fmt.Sprintf("cannot transition payment from %s to %s", order.PaymentStatus, newStatus))
	}

	order.PaymentStatus = newStatus
	if newStatus == PaymentStatusPaid && order.CompletedDate == nil {
		now := time.Now().UTC()
		order.CompletedDate = &now
	}

	if err := db.WithContext(ctx).Omit("Details").Save(order).Error; err != nil {
		return nil, err
	}

	return order, nil
}
