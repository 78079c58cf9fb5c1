package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/models"
	"github.com/threadline/store_backend/utils"
)

func statusForKind(kind utils.ErrorKind) int {
	switch kind {
	case utils.ErrorKindNotFound:
		return http.StatusNotFound
	case utils.ErrorKindValidation, utils.ErrorKindInsufficientStock:
		return http.StatusBadRequest
	case utils.ErrorKindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	kind := utils.KindOf(err)
	status := statusForKind(kind)

	body := gin.H{"error": err.Error()}
	if kind != "" {
		body["kind"] = string(kind)
	}
	if status == http.StatusInternalServerError {
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(config.GetLogger(), "handlers", c.HandlerName(), c.Request.URL.Path,
			gin.H{"correlation_id": cid}, err)
		body["error"] = "internal server error"
	}
	c.JSON(status, body)
}

// bindError renders a request-binding failure; field-level validation
// failures are broken out per field.
func bindError(c *gin.Context, err error) {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": utils.ProcessValidationErrors(vErrs),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

const idempotencyHeader = "X-Idempotency-Key"

// withIdempotency wraps a mutating handler body. When the client sends an
// X-Idempotency-Key it replays the stored response for a repeated key and
// records the outcome of a fresh one; without the header it just runs fn.
func withIdempotency(c *gin.Context, handlerName string, fn func() (int, interface{})) {
	key := c.GetHeader(idempotencyHeader)
	if key == "" {
		status, body := fn()
		c.JSON(status, body)
		return
	}

	ctx := c.Request.Context()
	record, fresh, err := models.BeginIdempotentRequest(ctx, handlerName, key)
	if err != nil {
		respondError(c, err)
		return
	}
	if !fresh {
		if record.Status == models.IdempotencyStatusStarted {
			// the first request is still in flight
			c.JSON(http.StatusConflict, gin.H{"error": "request with this idempotency key is in progress"})
			return
		}
		c.Data(record.ResponseCode, "application/json", []byte(record.ResponseBody))
		return
	}

	status, body := fn()

	raw, marshalErr := json.Marshal(body)
	if marshalErr != nil {
		raw = []byte(`{}`)
	}
	outcome := models.IdempotencyStatusSucceeded
	if status >= http.StatusBadRequest {
		outcome = models.IdempotencyStatusFailed
	}
	if err := models.FinishIdempotentRequest(ctx, record.ID, outcome, status, string(raw)); err != nil {
		config.LogError(config.GetLogger(), "handlers", handlerName, "finish idempotency", nil, err)
	}

	c.JSON(status, body)
}

// outcome converts a model-layer result into the (status, body) pair that
// withIdempotency persists.
func outcome(created bool, result interface{}, err error) (int, interface{}) {
	if err != nil {
		kind := utils.KindOf(err)
		body := gin.H{"error": err.Error()}
		if kind != "" {
			body["kind"] = string(kind)
		}
		return statusForKind(kind), body
	}
	if created {
		return http.StatusCreated, result
	}
	return http.StatusOK, result
}
