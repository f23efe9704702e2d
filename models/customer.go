package models

import (
	"context"
	"errors"
	"time"

	"github.com/partsflow/spareparts_backend/config"
	"github.com/partsflow/spareparts_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer carries a single running balance; it is increased by the net
// amount of credit sales and is never decreased automatically (payments are
// recorded outside this system).
type Customer struct {
	ID             int             `gorm:"primary_key" json:"id"`
	Code           string          `gorm:"size:100;uniqueIndex;not null" json:"code" binding:"required"`
	Name           string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Phone          string          `gorm:"size:20" json:"phone"`
	Email          string          `gorm:"size:100" json:"email"`
	Address        string          `gorm:"type:text" json:"address"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_balance"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	if msgs := utils.ValidateStruct(input); msgs != nil {
		return nil, NewValidationError("customer", msgs[0])
	}
	if err := utils.ValidateUnique[Customer](ctx, "code", input.Code, 0); err != nil {
		return nil, NewDuplicateError("customer", "code", input.Code)
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, NewValidationError("email", "invalid email address")
	}

	customer := Customer{
		Code:    input.Code,
		Name:    input.Name,
		Phone:   utils.NormalizePhoneNumber(input.Phone, utils.CountryCode),
		Email:   input.Email,
		Address: input.Address,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	db := config.GetDB()
	var customer Customer
	err := db.WithContext(ctx).First(&customer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("customer", id)
		}
		return nil, err
	}
	return &customer, nil
}

func GetCustomerTx(tx *gorm.DB, id int) (*Customer, error) {
	var customer Customer
	err := tx.First(&customer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("customer", id)
		}
		return nil, err
	}
	return &customer, nil
}

func ListCustomers(ctx context.Context, search string) ([]Customer, error) {
	db := config.GetDB()
	q := db.WithContext(ctx).Model(&Customer{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("code LIKE ? OR name LIKE ? OR phone LIKE ?", like, like, like).
			Limit(config.SearchLimit)
	}
	var customers []Customer
	if err := q.Order("name").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// AdjustCustomerBalance applies a relative delta with a single SQL expression
// so concurrent invoices never lose updates. Called only from workflow inside
// the invoice transaction.
func AdjustCustomerBalance(tx *gorm.DB, customerId int, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	result := tx.Model(&Customer{}).
		Where("id = ?", customerId).
		Update("current_balance", gorm.Expr("current_balance + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError("customer", customerId)
	}
	return nil
}
