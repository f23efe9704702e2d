package models

import (
	"context"
	"errors"
	"time"

	"github.com/partsflow/spareparts_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleInvoice covers both direct warehouse sales (REGULAR, optional customer,
// flexible pricing) and branch sales (BRANCH, mandatory branch, enforced
// branch price). CustomerId and BranchId are mutually exclusive by sale type.
type SaleInvoice struct {
	ID            int               `gorm:"primary_key" json:"id"`
	InvoiceNumber string            `gorm:"size:100;uniqueIndex;not null" json:"invoice_number"`
	SaleType      SaleType          `gorm:"type:enum('REGULAR','BRANCH');not null" json:"sale_type"`
	CustomerId    *int              `gorm:"index" json:"customer_id"`
	BranchId      *int              `gorm:"index" json:"branch_id"`
	InvoiceDate   time.Time         `gorm:"not null" json:"invoice_date"`
	PaymentMethod PaymentMethod     `gorm:"type:enum('CASH','CARD','TRANSFER','CREDIT');not null" json:"payment_method"`
	Discount      decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"discount"`
	TotalAmount   decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	NetAmount     decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"net_amount"`
	Notes         string            `gorm:"type:text" json:"notes"`
	CreatedBy     int               `gorm:"index" json:"created_by"`
	Items         []SaleInvoiceItem `gorm:"foreignKey:SaleInvoiceId" json:"items"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type SaleInvoiceItem struct {
	ID            int             `gorm:"primary_key" json:"id"`
	SaleInvoiceId int             `gorm:"index;not null" json:"sale_invoice_id"`
	ProductId     int             `gorm:"index;not null" json:"product_id"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	LineTotal     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"line_total"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewSaleInvoice struct {
	SaleType      SaleType             `json:"sale_type" validate:"required"`
	CustomerId    *int                 `json:"customer_id"`
	BranchId      *int                 `json:"branch_id"`
	InvoiceDate   time.Time            `json:"invoice_date"`
	PaymentMethod PaymentMethod        `json:"payment_method" validate:"required"`
	Discount      decimal.Decimal      `json:"discount"`
	Items         []NewSaleInvoiceItem `json:"items" validate:"required,dive"`
	Notes         string               `json:"notes"`
}

type NewSaleInvoiceItem struct {
	ProductId int             `json:"product_id" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func GetSaleInvoice(ctx context.Context, id int) (*SaleInvoice, error) {
	db := config.GetDB()
	var invoice SaleInvoice
	err := db.WithContext(ctx).Preload("Items").First(&invoice, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("sale invoice", id)
		}
		return nil, err
	}
	return &invoice, nil
}

func GetSaleInvoiceForPosting(tx *gorm.DB, id int) (*SaleInvoice, error) {
	var invoice SaleInvoice
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&invoice, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("sale invoice", id)
		}
		return nil, err
	}
	if err := tx.Where("sale_invoice_id = ?", id).Order("id").Find(&invoice.Items).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func ListSaleInvoices(ctx context.Context, saleType SaleType, customerId, branchId int) ([]SaleInvoice, error) {
	db := config.GetDB()
	q := db.WithContext(ctx).Model(&SaleInvoice{}).Preload("Items")
	if saleType != "" {
		q = q.Where("sale_type = ?", saleType)
	}
	if customerId > 0 {
		q = q.Where("customer_id = ?", customerId)
	}
	if branchId > 0 {
		q = q.Where("branch_id = ?", branchId)
	}
	var invoices []SaleInvoice
	if err := q.Order("invoice_date DESC, id DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
