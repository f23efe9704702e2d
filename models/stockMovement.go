package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMovement is the append-only audit ledger. Every stock mutation writes
// one row here in the same transaction; the summary rows (InventoryItem,
// BranchInventory) must always equal the sum of their movements.
type StockMovement struct {
	ID            int                `gorm:"primary_key" json:"id"`
	ProductId     int                `gorm:"index:idx_stock_move_product_date,priority:1;not null" json:"product_id"`
	BranchId      *int               `gorm:"index" json:"branch_id"` // nil = main warehouse
	QtyDelta      int                `gorm:"not null" json:"qty_delta"`
	UnitValue     decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"unit_value"`
	ReferenceType StockReferenceType `gorm:"size:10;not null" json:"reference_type"`
	ReferenceId   int                `gorm:"index;not null" json:"reference_id"`
	IsReversal    bool               `gorm:"not null;default:false" json:"is_reversal"`
	CorrelationId string             `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time          `gorm:"autoCreateTime;index:idx_stock_move_product_date,priority:2" json:"created_at"`
}

// NewCorrelationId groups the movement rows of one engine operation.
func NewCorrelationId() string {
	return uuid.NewString()
}

func AppendStockMovement(tx *gorm.DB, movement *StockMovement) error {
	return tx.Create(movement).Error
}

// SumMovements recomputes main-warehouse on-hand from the ledger. Used by
// cmd/inventory-recheck to detect drift between movements and summary rows.
func SumMovements(tx *gorm.DB, productId int) (int, error) {
	var total *int
	err := tx.Model(&StockMovement{}).
		Where("product_id = ? AND branch_id IS NULL", productId).
		Select("SUM(qty_delta)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func SumBranchMovements(tx *gorm.DB, branchId, productId int) (int, error) {
	var total *int
	err := tx.Model(&StockMovement{}).
		Where("product_id = ? AND branch_id = ?", productId, branchId).
		Select("SUM(qty_delta)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
