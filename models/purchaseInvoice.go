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

type PurchaseInvoice struct {
	ID              int                   `gorm:"primary_key" json:"id"`
	InvoiceNumber   string                `gorm:"size:100;uniqueIndex;not null" json:"invoice_number" binding:"required"`
	SupplierId      int                   `gorm:"index;not null" json:"supplier_id" binding:"required"`
	InvoiceDate     time.Time             `gorm:"not null" json:"invoice_date"`
	DueDate         *time.Time            `json:"due_date"`
	PaymentType     PaymentType           `gorm:"type:enum('CASH','CREDIT');not null" json:"payment_type"`
	PaymentMethod   *PaymentMethod        `gorm:"type:enum('CASH','CARD','TRANSFER','CREDIT')" json:"payment_method"`
	Status          PurchaseInvoiceStatus `gorm:"type:enum('PENDING','PAID');not null" json:"status"`
	TotalAmount     decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	PaidAmount      decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	RemainingAmount decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"remaining_amount"`
	Notes           string                `gorm:"type:text" json:"notes"`
	CreatedBy       int                   `gorm:"index" json:"created_by"`
	Items           []PurchaseInvoiceItem `gorm:"foreignKey:PurchaseInvoiceId" json:"items"`
	CreatedAt       time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseInvoiceItem struct {
	ID                int             `gorm:"primary_key" json:"id"`
	PurchaseInvoiceId int             `gorm:"index;not null" json:"purchase_invoice_id"`
	ProductId         int             `gorm:"index;not null" json:"product_id"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	LineTotal         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"line_total"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPurchaseInvoice struct {
	InvoiceNumber string                   `json:"invoice_number" validate:"required"`
	SupplierId    int                      `json:"supplier_id" validate:"required,gt=0"`
	InvoiceDate   time.Time                `json:"invoice_date"`
	DueDate       *time.Time               `json:"due_date"`
	PaymentType   PaymentType              `json:"payment_type" validate:"required"`
	PaymentMethod *PaymentMethod           `json:"payment_method"`
	Items         []NewPurchaseInvoiceItem `json:"items" validate:"required,dive"`
	Notes         string                   `json:"notes"`
}

type NewPurchaseInvoiceItem struct {
	ProductId int             `json:"product_id" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func GetPurchaseInvoice(ctx context.Context, id int) (*PurchaseInvoice, error) {
	db := config.GetDB()
	var invoice PurchaseInvoice
	err := db.WithContext(ctx).Preload("Items").First(&invoice, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("purchase invoice", id)
		}
		return nil, err
	}
	return &invoice, nil
}

// GetPurchaseInvoiceForPosting loads the header locked for the lifetime of
// the transaction so delete/update cannot race another mutation of the same
// invoice.
func GetPurchaseInvoiceForPosting(tx *gorm.DB, id int) (*PurchaseInvoice, error) {
	var invoice PurchaseInvoice
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&invoice, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("purchase invoice", id)
		}
		return nil, err
	}
	if err := tx.Where("purchase_invoice_id = ?", id).Order("id").Find(&invoice.Items).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func ListPurchaseInvoices(ctx context.Context, supplierId int, status PurchaseInvoiceStatus) ([]PurchaseInvoice, error) {
	db := config.GetDB()
	q := db.WithContext(ctx).Model(&PurchaseInvoice{}).Preload("Items")
	if supplierId > 0 {
		q = q.Where("supplier_id = ?", supplierId)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var invoices []PurchaseInvoice
	if err := q.Order("invoice_date DESC, id DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
