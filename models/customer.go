package models

import (
	"context"
	"errors"
	"time"

	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/utils"
	"gorm.io/gorm"
)

type Customer struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Phone     string    `gorm:"size:20;not null;uniqueIndex" json:"phone" binding:"required"`
	Address   string    `gorm:"size:255" json:"address"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address"`
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	db := config.GetDB()

	phone, err := utils.NormalizePhone(input.Phone)
	if err != nil {
		return nil, utils.ValidationError("invalid phone number")
	}
	if err := utils.ValidateUnique[Customer](ctx, "phone", phone, 0); err != nil {
		return nil, err
	}

	customer := Customer{
		Name:    input.Name,
		Phone:   phone,
		Address: input.Address,
	}
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetCustomerByPhone resolves a customer from any formatting of their phone
// number.
func GetCustomerByPhone(ctx context.Context, phone string) (*Customer, error) {
	db := config.GetDB()

	normalized, err := utils.NormalizePhone(phone)
	if err != nil {
		return nil, utils.ValidationError("invalid phone number")
	}

	var customer Customer
	err = db.WithContext(ctx).Where("phone = ?", normalized).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFoundError("customer not found")
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	customer, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, utils.NotFoundError("customer not found")
	}
	return customer, nil
}
