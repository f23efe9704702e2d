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

// BranchTransfer moves stock from the main warehouse into a branch. Each
// line is priced at the branch's transfer price and stamps the branch sale
// price for subsequent branch sales.
type BranchTransfer struct {
	ID             int                  `gorm:"primary_key" json:"id"`
	TransferNumber string               `gorm:"size:100;uniqueIndex;not null" json:"transfer_number"`
	BranchId       int                  `gorm:"index;not null" json:"branch_id"`
	TransferDate   time.Time            `gorm:"not null" json:"transfer_date"`
	TotalAmount    decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Notes          string               `gorm:"type:text" json:"notes"`
	CreatedBy      int                  `gorm:"index" json:"created_by"`
	Items          []BranchTransferItem `gorm:"foreignKey:BranchTransferId" json:"items"`
	CreatedAt      time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type BranchTransferItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	BranchTransferId int             `gorm:"index;not null" json:"branch_transfer_id"`
	ProductId        int             `gorm:"index;not null" json:"product_id"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	TransferPrice    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"transfer_price"`
	RetailPrice      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"retail_price"`
	LineTotal        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"line_total"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewBranchTransfer struct {
	BranchId     int                     `json:"branch_id" validate:"required,gt=0"`
	TransferDate time.Time               `json:"transfer_date"`
	Items        []NewBranchTransferItem `json:"items" validate:"required,dive"`
	Notes        string                  `json:"notes"`
}

type NewBranchTransferItem struct {
	ProductId int `json:"product_id" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"required,gt=0"`
}

func GetBranchTransfer(ctx context.Context, id int) (*BranchTransfer, error) {
	db := config.GetDB()
	var transfer BranchTransfer
	err := db.WithContext(ctx).Preload("Items").First(&transfer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("branch transfer", id)
		}
		return nil, err
	}
	return &transfer, nil
}

func GetBranchTransferForPosting(tx *gorm.DB, id int) (*BranchTransfer, error) {
	var transfer BranchTransfer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&transfer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("branch transfer", id)
		}
		return nil, err
	}
	if err := tx.Where("branch_transfer_id = ?", id).Order("id").Find(&transfer.Items).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func ListBranchTransfers(ctx context.Context, branchId int) ([]BranchTransfer, error) {
	db := config.GetDB()
	q := db.WithContext(ctx).Model(&BranchTransfer{}).Preload("Items")
	if branchId > 0 {
		q = q.Where("branch_id = ?", branchId)
	}
	var transfers []BranchTransfer
	if err := q.Order("transfer_date DESC, id DESC").Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}
