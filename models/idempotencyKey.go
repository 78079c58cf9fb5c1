package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/utils"
	"gorm.io/gorm"
)

type IdempotencyStatus string

const (
	IdempotencyStatusStarted   IdempotencyStatus = "STARTED"
	IdempotencyStatusSucceeded IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)

// IdempotencyKey records one client-supplied key per handler so a retried
// request replays the stored response instead of re-running the mutation.
type IdempotencyKey struct {
	ID           int               `gorm:"primary_key" json:"id"`
	HandlerName  string            `gorm:"size:100;not null;index:uniq_handler_key,unique" json:"handler_name"`
	Key          string            `gorm:"size:100;not null;index:uniq_handler_key,unique" json:"key"`
	Status       IdempotencyStatus `gorm:"size:20;not null;default:'STARTED'" json:"status"`
	ResponseCode int               `json:"response_code"`
	ResponseBody string            `gorm:"type:text" json:"response_body"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeginIdempotentRequest claims the (handler, key) pair. It returns the
// prior record when the key was seen before; inserting the STARTED row first
// is what makes a concurrent duplicate lose on the unique index.
func BeginIdempotentRequest(ctx context.Context, handlerName, key string) (*IdempotencyKey, bool, error) {
	db := config.GetDB()

	record := IdempotencyKey{
		HandlerName: handlerName,
		Key:         key,
		Status:      IdempotencyStatusStarted,
	}
	err := db.WithContext(ctx).Create(&record).Error
	if err == nil {
		return &record, true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) && !isUniqueViolation(err) {
		return nil, false, err
	}

	var existing IdempotencyKey
	findErr := db.WithContext(ctx).
		Where("handler_name = ? AND `key` = ?", handlerName, key).
		First(&existing).Error
	if findErr != nil {
		return nil, false, findErr
	}
	return &existing, false, nil
}

// isUniqueViolation covers drivers that do not translate duplicate-key
// errors into gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// FinishIdempotentRequest stores the final outcome for later replays.
func FinishIdempotentRequest(ctx context.Context, id int, status IdempotencyStatus, responseCode int, responseBody string) error {
	db := config.GetDB()

	result := db.WithContext(ctx).Model(&IdempotencyKey{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"response_code": responseCode,
			"response_body": responseBody,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.NotFoundError("idempotency record not found")
	}
	return nil
}
