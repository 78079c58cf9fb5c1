package models

import (
	"context"
	"errors"
	"time"

	"github.com/threadline/store_backend/config"
	"github.com/threadline/store_backend/utils"
	"gorm.io/gorm"
)

// Employee carries staff identity for orders (who sold, who delivers) and
// login. HR/payroll data lives elsewhere.
type Employee struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Username     string    `gorm:"size:50;not null;uniqueIndex" json:"username" binding:"required"`
	Phone        string    `gorm:"size:20" json:"phone"`
	Role         StaffRole `gorm:"size:20;not null;default:'Sales'" json:"role"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEmployee struct {
	Name     string    `json:"name" binding:"required"`
	Username string    `json:"username" binding:"required"`
	Phone    string    `json:"phone"`
	Role     StaffRole `json:"role"`
	Password string    `json:"password" binding:"required"`
}

func CreateEmployee(ctx context.Context, input *NewEmployee) (*Employee, error) {
	db := config.GetDB()

	if err := utils.ValidateUnique[Employee](ctx, "username", input.Username, 0); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = StaffRoleSales
	}

	employee := Employee{
		Name:         input.Name,
		Username:     input.Username,
		Phone:        input.Phone,
		Role:         role,
		PasswordHash: string(hash),
		IsActive:     utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// AuthenticateEmployee checks credentials for login. The same NotFound is
// returned for an unknown username and a wrong password.
func AuthenticateEmployee(ctx context.Context, username, password string) (*Employee, error) {
	db := config.GetDB()

	var employee Employee
	err := db.WithContext(ctx).Where("username = ?", username).First(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFoundError("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if employee.IsActive != nil && !*employee.IsActive {
		return nil, utils.NotFoundError("invalid credentials")
	}
	if err := utils.ComparePassword(employee.PasswordHash, password); err != nil {
		return nil, utils.NotFoundError("invalid credentials")
	}
	return &employee, nil
}

func GetEmployee(ctx context.Context, id int) (*Employee, error) {
	employee, err := utils.FetchModel[Employee](ctx, id)
	if err != nil {
		return nil, utils.NotFoundError("employee not found")
	}
	return employee, nil
}
