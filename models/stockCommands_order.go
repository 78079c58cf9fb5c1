package models

import (
	"context"
	"sort"

	"gorm.io/gorm"
)

// ApplyOrderStockForStatusTransition runs the stock side effect of a status
// change inside the caller's transaction. Reservation happens once at order
// creation and Completed consumes it in place, so the only transition that
// moves stock is entering Cancelled.
func ApplyOrderStockForStatusTransition(ctx context.Context, tx *gorm.DB, order *Order, oldStatus, newStatus OrderStatus) error {
	releaseStock := oldStatus != OrderStatusCancelled && newStatus == OrderStatusCancelled
	if !releaseStock {
		return nil
	}

	details := make([]OrderDetail, len(order.Details))
	copy(details, order.Details)
	sort.Slice(details, func(i, j int) bool { return details[i].VariantId < details[j].VariantId })

	for _, detail := range details {
		if err := ReleaseVariantStock(tx.WithContext(ctx), detail.VariantId, detail.Quantity); err != nil {
			return err
		}
	}
	return nil
}
