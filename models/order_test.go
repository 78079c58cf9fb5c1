package models_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/threadline/store_backend/models"
	"github.com/threadline/store_backend/utils"
)

func TestCreateOrderReservesStockAndSnapshotsPrice(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 5, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if got := variantStock(t, ctx, variant.ID); got != 2 {
		t.Fatalf("expected stock 2 after reserving 3 of 5, got %d", got)
	}
	if order.Status != models.OrderStatusPending {
		t.Fatalf("expected Pending, got %s", order.Status)
	}
	if order.PaymentStatus != models.PaymentStatusUnpaid {
		t.Fatalf("expected Unpaid, got %s", order.PaymentStatus)
	}
	if order.OrderNumber == "" {
		t.Fatal("expected an order number")
	}
	if len(order.Details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(order.Details))
	}
	if !order.Details[0].PriceAtOrder.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("expected snapshot price 350, got %s", order.Details[0].PriceAtOrder)
	}
	if !order.FinalTotal.Equal(decimal.NewFromInt(1050)) {
		t.Fatalf("expected final total 1050, got %s", order.FinalTotal)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 2, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	_, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 3},
		},
	})
	if utils.KindOf(err) != utils.ErrorKindInsufficientStock {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	if got := variantStock(t, ctx, variant.ID); got != 2 {
		t.Fatalf("stock must be untouched on failure, got %d", got)
	}
}

func TestCreateOrderPartialFailureRollsBackWholeOrder(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variantA := seedSellableVariant(t, ctx, "Shirt", 10, 350, 150)
	_, variantB := seedSellableVariant(t, ctx, "Jacket", 1, 780, 400)
	customer, staff := seedCustomerAndStaff(t, ctx)

	_, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variantA.ID, Quantity: 2},
			{VariantId: variantB.ID, Quantity: 5},
		},
	})
	if utils.KindOf(err) != utils.ErrorKindInsufficientStock {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	if got := variantStock(t, ctx, variantA.ID); got != 10 {
		t.Fatalf("variant A stock must roll back to 10, got %d", got)
	}
	if got := variantStock(t, ctx, variantB.ID); got != 1 {
		t.Fatalf("variant B stock must stay 1, got %d", got)
	}

	orders, err := models.GetOrders(ctx, nil, nil)
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("no order row may survive a failed create, got %d", len(orders))
	}
}

func TestCreateOrderUnknownVariant(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	customer, staff := seedCustomerAndStaff(t, ctx)
	_, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: 999, Quantity: 1},
		},
	})
	if utils.KindOf(err) != utils.ErrorKindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateOrderUnknownCustomerPhone(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 5, 350, 150)
	_, staff := seedCustomerAndStaff(t, ctx)

	_, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: "0987654321",
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 1},
		},
	})
	if utils.KindOf(err) != utils.ErrorKindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDirectSaleCompletesImmediately(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 5, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Channel:       models.OrderChannelDirect,
		PaymentMethod: models.PaymentMethodCash,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Status != models.OrderStatusCompleted {
		t.Fatalf("expected Completed, got %s", order.Status)
	}
	if order.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("expected Paid, got %s", order.PaymentStatus)
	}
	if order.CompletedDate == nil {
		t.Fatal("expected completed date to be stamped")
	}
	if got := variantStock(t, ctx, variant.ID); got != 4 {
		t.Fatalf("direct sale still reserves stock, got %d", got)
	}
}

func TestCancelOrderRestoresStockOnce(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 5, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := models.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := variantStock(t, ctx, variant.ID); got != 5 {
		t.Fatalf("expected stock restored to 5, got %d", got)
	}

	// terminal: a second cancel must fail and must not release again
	_, err = models.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled)
	if utils.KindOf(err) != utils.ErrorKindInvalidState {
		t.Fatalf("expected invalid state on double cancel, got %v", err)
	}
	if got := variantStock(t, ctx, variant.ID); got != 5 {
		t.Fatalf("double cancel must not double-release, got %d", got)
	}
}

func TestCompleteOrderKeepsStockConsumed(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 5, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	completed, err := models.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.CompletedDate == nil {
		t.Fatal("expected completed date to be stamped")
	}
	if got := variantStock(t, ctx, variant.ID); got != 3 {
		t.Fatalf("completion consumes the reservation in place, got %d", got)
	}

	// terminal: completed orders cannot be cancelled
	_, err = models.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled)
	if utils.KindOf(err) != utils.ErrorKindInvalidState {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestUpdateOrderReplacesLines(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variantA := seedSellableVariant(t, ctx, "Shirt", 10, 350, 150)
	_, variantB := seedSellableVariant(t, ctx, "Jacket", 10, 780, 400)
	customer, staff := seedCustomerAndStaff(t, ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variantA.ID, Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	updated, err := models.UpdateOrder(ctx, order.ID, &models.UpdateOrderInput{
		Details: []models.NewOrderDetail{
			{VariantId: variantA.ID, Quantity: 1},
			{VariantId: variantB.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}

	if got := variantStock(t, ctx, variantA.ID); got != 9 {
		t.Fatalf("variant A should net out at 9, got %d", got)
	}
	if got := variantStock(t, ctx, variantB.ID); got != 8 {
		t.Fatalf("variant B should net out at 8, got %d", got)
	}
	if len(updated.Details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(updated.Details))
	}
	want := decimal.NewFromInt(350 + 2*780)
	if !updated.Subtotal.Equal(want) {
		t.Fatalf("expected subtotal %s, got %s", want, updated.Subtotal)
	}
}

func TestUpdateOrderSameLinesNetsZero(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 5, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := models.UpdateOrder(ctx, order.ID, &models.UpdateOrderInput{
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 3},
		},
	}); err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if got := variantStock(t, ctx, variant.ID); got != 2 {
		t.Fatalf("identical lines must leave stock unchanged, got %d", got)
	}
}

func TestUpdateOrderInsufficientStockRollsBack(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 5, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	// releasing 3 leaves 5 available, so 6 must fail and roll back to the
	// original reservation
	_, err = models.UpdateOrder(ctx, order.ID, &models.UpdateOrderInput{
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 6},
		},
	})
	if utils.KindOf(err) != utils.ErrorKindInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := variantStock(t, ctx, variant.ID); got != 2 {
		t.Fatalf("failed update must keep the old reservation, got %d", got)
	}

	reloaded, err := models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if len(reloaded.Details) != 1 || reloaded.Details[0].Quantity != 3 {
		t.Fatalf("old lines must survive a failed update: %+v", reloaded.Details)
	}
}

func TestUpdateCancelledOrderRejected(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 5, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := models.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err = models.UpdateOrder(ctx, order.ID, &models.UpdateOrderInput{
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 1},
		},
	})
	if utils.KindOf(err) != utils.ErrorKindInvalidState {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if got := variantStock(t, ctx, variant.ID); got != 5 {
		t.Fatalf("stock must stay restored at 5, got %d", got)
	}
}

func TestPriceSnapshotSurvivesBasePriceChange(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	product, variant := seedSellableVariant(t, ctx, "Shirt", 5, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := models.UpdateProductBasePrice(ctx, product.ID, decimal.NewFromInt(999)); err != nil {
		t.Fatalf("UpdateProductBasePrice: %v", err)
	}

	reloaded, err := models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if !reloaded.Details[0].PriceAtOrder.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("snapshot price must not follow the catalog, got %s", reloaded.Details[0].PriceAtOrder)
	}
}

func TestPaymentStatusPaidStampsCompletedDate(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 5, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	paid, err := models.UpdateOrderPaymentStatus(ctx, order.ID, models.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.CompletedDate == nil {
		t.Fatal("marking paid must stamp the completed date")
	}
	if got := variantStock(t, ctx, variant.ID); got != 4 {
		t.Fatalf("payment must not move stock, got %d", got)
	}

	_, err = models.UpdateOrderPaymentStatus(ctx, order.ID, models.PaymentStatusUnpaid)
	if utils.KindOf(err) != utils.ErrorKindInvalidState {
		t.Fatalf("expected invalid state on Paid -> Unpaid, got %v", err)
	}
}

func TestDeleteOrderReleasesStock(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 5, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := models.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if got := variantStock(t, ctx, variant.ID); got != 5 {
		t.Fatalf("delete must release the reservation, got %d", got)
	}
	if _, err := models.GetOrder(ctx, order.ID); utils.KindOf(err) != utils.ErrorKindNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestDeleteCancelledOrderDoesNotDoubleRelease(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 5, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := models.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := models.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if got := variantStock(t, ctx, variant.ID); got != 5 {
		t.Fatalf("cancelled order's stock was already released, got %d", got)
	}
}

func TestCreateOrderWithPriceOverride(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 5, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	discounted := decimal.NewFromInt(300)
	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		ShippingCost:  decimal.NewFromInt(25),
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 2, PriceAtOrder: &discounted},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if !order.Details[0].PriceAtOrder.Equal(discounted) {
		t.Fatalf("expected override price 300, got %s", order.Details[0].PriceAtOrder)
	}
	if !order.FinalTotal.Equal(decimal.NewFromInt(625)) {
		t.Fatalf("expected final total 625, got %s", order.FinalTotal)
	}
}

func TestCreateOrderMergesDuplicateVariantLines(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 10, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 2},
			{VariantId: variant.ID, Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if len(order.Details) != 1 {
		t.Fatalf("expected duplicate lines to merge into 1 detail, got %d", len(order.Details))
	}
	if order.Details[0].Quantity != 6 {
		t.Fatalf("expected merged quantity 6, got %d", order.Details[0].Quantity)
	}
	if !order.Subtotal.Equal(decimal.NewFromInt(2100)) {
		t.Fatalf("expected subtotal 2100, got %s", order.Subtotal)
	}
	if got := variantStock(t, ctx, variant.ID); got != 4 {
		t.Fatalf("expected stock 4 after reserving 6 of 10, got %d", got)
	}

	// cancellation releases the merged reservation exactly once
	if _, err := models.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := variantStock(t, ctx, variant.ID); got != 10 {
		t.Fatalf("expected stock 10 after cancellation, got %d", got)
	}
}

func TestCreateOrderDuplicateLinesLastOverrideWins(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, variant := seedSellableVariant(t, ctx, "Shirt", 10, 350, 150)
	customer, staff := seedCustomerAndStaff(t, ctx)

	discounted := decimal.NewFromInt(300)
	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerPhone: customer.Phone,
		StaffId:       staff.ID,
		Details: []models.NewOrderDetail{
			{VariantId: variant.ID, Quantity: 1},
			{VariantId: variant.ID, Quantity: 1, PriceAtOrder: &discounted},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if len(order.Details) != 1 {
		t.Fatalf("expected 1 merged detail, got %d", len(order.Details))
	}
	if !order.Details[0].PriceAtOrder.Equal(discounted) {
		t.Fatalf("expected override price 300 on the merged line, got %s", order.Details[0].PriceAtOrder)
	}
	if !order.Subtotal.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("expected subtotal 600, got %s", order.Subtotal)
	}
}
