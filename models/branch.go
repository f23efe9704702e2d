package models

import (
	"context"
	"errors"
	"time"

	"github.com/partsflow/spareparts_backend/config"
	"github.com/partsflow/spareparts_backend/utils"
	"gorm.io/gorm"
)

// Branch is a subordinate retail store supplied from the main warehouse.
type Branch struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Code      string    `gorm:"size:50;uniqueIndex;not null" json:"code" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Address   string    `gorm:"type:text" json:"address"`
	Phone     string    `gorm:"size:20" json:"phone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBranch struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func CreateBranch(ctx context.Context, input *NewBranch) (*Branch, error) {
	if msgs := utils.ValidateStruct(input); msgs != nil {
		return nil, NewValidationError("branch", msgs[0])
	}
	if err := utils.ValidateUnique[Branch](ctx, "code", input.Code, 0); err != nil {
		return nil, NewDuplicateError("branch", "code", input.Code)
	}

	branch := Branch{
		Code:    input.Code,
		Name:    input.Name,
		Address: input.Address,
		Phone:   utils.NormalizePhoneNumber(input.Phone, utils.CountryCode),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func GetBranch(ctx context.Context, id int) (*Branch, error) {
	db := config.GetDB()
	var branch Branch
	err := db.WithContext(ctx).First(&branch, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("branch", id)
		}
		return nil, err
	}
	return &branch, nil
}

func GetBranchTx(tx *gorm.DB, id int) (*Branch, error) {
	var branch Branch
	err := tx.First(&branch, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("branch", id)
		}
		return nil, err
	}
	return &branch, nil
}

func ListBranches(ctx context.Context) ([]Branch, error) {
	db := config.GetDB()
	var branches []Branch
	if err := db.WithContext(ctx).Order("code").Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}
