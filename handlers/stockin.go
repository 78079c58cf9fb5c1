package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/threadline/store_backend/models"
)

func ReceiveStockInHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewStockIn
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}

		withIdempotency(c, "ReceiveStockIn", func() (int, interface{}) {
			receipt, err := models.ReceiveStockIn(c.Request.Context(), &input)
			return outcome(true, receipt, err)
		})
	}
}

func ReverseStockInHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		receiptId, ok := pathId(c, "receiptId")
		if !ok {
			return
		}
		variantId, ok := pathId(c, "variantId")
		if !ok {
			return
		}

		withIdempotency(c, "ReverseStockIn", func() (int, interface{}) {
			err := models.ReverseStockIn(c.Request.Context(), receiptId, variantId)
			return outcome(false, gin.H{"reversed": err == nil}, err)
		})
	}
}

func GetStockInReceiptHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		receipt, err := models.GetStockInReceipt(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, receipt)
	}
}

func GetStockInReceiptsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		receipts, err := models.GetStockInReceipts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, receipts)
	}
}
