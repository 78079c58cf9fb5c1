package models

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionOrderStatus reports whether an order may move from one status
// to another. Pending may complete or cancel; Completed and Cancelled are
// terminal. Re-opening a cancelled order is not supported; it must be
// re-created.
func CanTransitionOrderStatus(from, to OrderStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case OrderStatusPending:
		return to == OrderStatusCompleted || to == OrderStatusCancelled
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "Unpaid"
	PaymentStatusPaid   PaymentStatus = "Paid"
)

func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPaid
}

// Payment is an independent axis from order status: Unpaid -> Paid only.
func CanTransitionPaymentStatus(from, to PaymentStatus) bool {
	return from == PaymentStatusUnpaid && to == PaymentStatusPaid
}

type OrderChannel string

const (
	OrderChannelDirect OrderChannel = "Direct"
	OrderChannelOnline OrderChannel = "Online"
)

func (c OrderChannel) IsValid() bool {
	return c == OrderChannelDirect || c == OrderChannelOnline
}

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "Cash"
	PaymentMethodCard     PaymentMethod = "Card"
	PaymentMethodTransfer PaymentMethod = "Transfer"
	PaymentMethodCOD      PaymentMethod = "COD"
)

type StaffRole string

const (
	StaffRoleAdmin StaffRole = "Admin"
	StaffRoleSales StaffRole = "Sales"
)
