package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/partsflow/spareparts_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BranchInventory is the per-(branch, product) stock held at a retail branch.
// BranchSalePrice is stamped from the branch's retail price at transfer time
// and is the mandatory, non-negotiable unit price for branch sales until the
// next transfer refreshes it.
type BranchInventory struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BranchId        int             `gorm:"uniqueIndex:idx_branch_inventory;not null" json:"branch_id"`
	ProductId       int             `gorm:"uniqueIndex:idx_branch_inventory;not null" json:"product_id"`
	Quantity        int             `gorm:"not null;default:0" json:"quantity"`
	BranchSalePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"branch_sale_price"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func FirstOrCreateBranchInventory(tx *gorm.DB, branchId, productId int) (*BranchInventory, error) {
	row := BranchInventory{BranchId: branchId, ProductId: productId}
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND product_id = ?", branchId, productId).
		FirstOrCreate(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	return &row, nil
}

// ReceiveBranchStock adds transferred quantity and refreshes the mandated
// branch sale price from the current retail price.
func ReceiveBranchStock(tx *gorm.DB, branchId, productId, qty int, salePrice decimal.Decimal) (*BranchInventory, error) {
	row, err := FirstOrCreateBranchInventory(tx, branchId, productId)
	if err != nil {
		return nil, err
	}
	err = tx.Model(&BranchInventory{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"quantity":          gorm.Expr("quantity + ?", qty),
			"branch_sale_price": salePrice,
		}).Error
	if err != nil {
		return nil, err
	}
	row.Quantity += qty
	row.BranchSalePrice = salePrice
	return row, nil
}

// DecrementBranchStock is the guarded decrement for branch stock; check and
// write are a single statement.
func DecrementBranchStock(tx *gorm.DB, branchId, productId, qty int) error {
	row, err := GetBranchInventoryTx(tx, branchId, productId)
	if err != nil {
		return err
	}
	result := tx.Model(&BranchInventory{}).
		Where("id = ? AND quantity >= ?", row.ID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		product, perr := GetProductTx(tx, productId)
		code := "?"
		if perr == nil {
			code = product.Code
		}
		return &InsufficientStockError{ProductCode: code, Requested: qty, Available: row.Quantity}
	}
	return nil
}

// ReturnBranchStock restores quantity on reversal without touching the
// stamped sale price.
func ReturnBranchStock(tx *gorm.DB, branchId, productId, qty int) error {
	row, err := FirstOrCreateBranchInventory(tx, branchId, productId)
	if err != nil {
		return err
	}
	return tx.Model(&BranchInventory{}).
		Where("id = ?", row.ID).
		Update("quantity", gorm.Expr("quantity + ?", qty)).Error
}

func GetBranchInventory(ctx context.Context, branchId, productId int) (*BranchInventory, error) {
	db := config.GetDB()
	var row BranchInventory
	err := db.WithContext(ctx).
		Where("branch_id = ? AND product_id = ?", branchId, productId).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("branch inventory", fmt.Sprintf("branch=%d product=%d", branchId, productId))
		}
		return nil, err
	}
	return &row, nil
}

func GetBranchInventoryTx(tx *gorm.DB, branchId, productId int) (*BranchInventory, error) {
	var row BranchInventory
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND product_id = ?", branchId, productId).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("branch inventory", fmt.Sprintf("branch=%d product=%d", branchId, productId))
		}
		return nil, err
	}
	return &row, nil
}

func ListBranchInventory(ctx context.Context, branchId int) ([]BranchInventory, error) {
	db := config.GetDB()
	var rows []BranchInventory
	err := db.WithContext(ctx).
		Where("branch_id = ?", branchId).
		Order("product_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
