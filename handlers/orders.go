package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/threadline/store_backend/models"
)

func CreateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewOrder
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}

		withIdempotency(c, "CreateOrder", func() (int, interface{}) {
			order, err := models.CreateOrder(c.Request.Context(), &input)
			return outcome(true, order, err)
		})
	}
}

func UpdateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.UpdateOrderInput
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}

		withIdempotency(c, "UpdateOrder", func() (int, interface{}) {
			order, err := models.UpdateOrder(c.Request.Context(), id, &input)
			return outcome(false, order, err)
		})
	}
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func UpdateOrderStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		withIdempotency(c, "UpdateOrderStatus", func() (int, interface{}) {
			order, err := models.UpdateOrderStatus(c.Request.Context(), id, req.Status)
			return outcome(false, order, err)
		})
	}
}

type updatePaymentStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" binding:"required"`
}

func UpdateOrderPaymentStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var req updatePaymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		withIdempotency(c, "UpdateOrderPaymentStatus", func() (int, interface{}) {
			order, err := models.UpdateOrderPaymentStatus(c.Request.Context(), id, req.PaymentStatus)
			return outcome(false, order, err)
		})
	}
}

func DeleteOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}

		withIdempotency(c, "DeleteOrder", func() (int, interface{}) {
			order, err := models.DeleteOrder(c.Request.Context(), id)
			return outcome(false, order, err)
		})
	}
}

func GetOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		order, err := models.GetOrder(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func GetOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var customerId *int
		if raw := c.Query("customer_id"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
				return
			}
			customerId = &id
		}
		var status *models.OrderStatus
		if raw := c.Query("status"); raw != "" {
			s := models.OrderStatus(raw)
			if !s.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			status = &s
		}

		orders, err := models.GetOrders(c.Request.Context(), customerId, status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}
