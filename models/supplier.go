package models

import (
	"context"
	"errors"
	"time"

	"github.com/partsflow/spareparts_backend/config"
	"github.com/partsflow/spareparts_backend/utils"
	"gorm.io/gorm"
)

type Supplier struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Code      string    `gorm:"size:100;uniqueIndex;not null" json:"code" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Email     string    `gorm:"size:100" json:"email"`
	Address   string    `gorm:"type:text" json:"address"`
	Notes     string    `gorm:"type:text" json:"notes"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	if msgs := utils.ValidateStruct(input); msgs != nil {
		return nil, NewValidationError("supplier", msgs[0])
	}
	if err := utils.ValidateUnique[Supplier](ctx, "code", input.Code, 0); err != nil {
		return nil, NewDuplicateError("supplier", "code", input.Code)
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, NewValidationError("email", "invalid email address")
	}

	supplier := Supplier{
		Code:    input.Code,
		Name:    input.Name,
		Phone:   utils.NormalizePhoneNumber(input.Phone, utils.CountryCode),
		Email:   input.Email,
		Address: input.Address,
		Notes:   input.Notes,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	db := config.GetDB()
	var supplier Supplier
	err := db.WithContext(ctx).First(&supplier, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("supplier", id)
		}
		return nil, err
	}
	return &supplier, nil
}

func ListSuppliers(ctx context.Context, search string) ([]Supplier, error) {
	db := config.GetDB()
	q := db.WithContext(ctx).Model(&Supplier{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("code LIKE ? OR name LIKE ?", like, like).
			Limit(config.SearchLimit)
	}
	var suppliers []Supplier
	if err := q.Order("name").Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}
