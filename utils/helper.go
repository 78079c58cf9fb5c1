package utils

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/threadline/store_backend/config"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "VN"

// NormalizePhone returns the E.164 form so the same customer is matched no
// matter how the caller typed the number.
func NormalizePhone(phoneNumber string) (string, error) {
	p, err := libphonenumber.Parse(phoneNumber, CountryCode)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number is not valid")
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// GetTypeName returns the bare struct name of T.
func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

func NilIfEmpty[T comparable](ptr T) *T {
	var defaultZero T
	if ptr == defaultZero {
		return nil
	}
	return &ptr
}

// StockLock serializes stock mutation as a best-effort optimization only.
// Correctness never depends on it: the conditional stock UPDATE is the
// guarantee. When redis is unavailable the caller proceeds without the lock.
// The returned release func is always safe to call.
func StockLock(ctx context.Context, key string, moduleName string, funcName string) func() {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}
	}
	lockKey := fmt.Sprintf("stockLock:%s", key)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"lockKey":  lockKey,
		}).Warn("could not obtain stock lock; proceeding without it")
		return func() {}
	} else if err != nil {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"lockKey":  lockKey,
		}).Warn("error obtaining stock lock; proceeding without it: " + err.Error())
		return func() {}
	}
	return func() {
		_ = lock.Release(ctx)
	}
}
