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

// InventoryItem is the main-warehouse stock row for a product, 1:1 with
// Product and created lazily on the first stock-affecting event. Quantity can
// never go negative: all decrements are guarded single-statement updates.
type InventoryItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	ProductId        int             `gorm:"uniqueIndex;not null" json:"product_id"`
	Quantity         int             `gorm:"not null;default:0" json:"quantity"`
	ReservedQuantity int             `gorm:"not null;default:0" json:"reserved_quantity"`
	LastCostPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"last_cost_price"`
	AverageCost      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"average_cost"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// BlendAverageCost recomputes the weighted average cost after a receipt:
// (oldQty*oldAvg + addQty*unitCost) / (oldQty + addQty).
// A non-positive resulting quantity keeps the previous average.
func BlendAverageCost(oldQty int, oldAvg decimal.Decimal, addQty int, unitCost decimal.Decimal) decimal.Decimal {
	total := oldQty + addQty
	if total <= 0 {
		return oldAvg
	}
	oldValue := oldAvg.Mul(decimal.NewFromInt(int64(oldQty)))
	addValue := unitCost.Mul(decimal.NewFromInt(int64(addQty)))
	return oldValue.Add(addValue).Div(decimal.NewFromInt(int64(total)))
}

// FirstOrCreateInventoryItem finds (or lazily creates) the ledger row for a
// product and returns it locked for the duration of the transaction.
func FirstOrCreateInventoryItem(tx *gorm.DB, productId int) (*InventoryItem, error) {
	item := InventoryItem{ProductId: productId}
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", productId).
		FirstOrCreate(&item)
	if result.Error != nil {
		return nil, result.Error
	}
	return &item, nil
}

// AddQuantity adjusts on-hand stock by delta (positive receipt, negative
// reversal). A positive delta with a positive unit cost re-blends the
// weighted average cost; reversals leave the average untouched. The row is
// locked before the read so concurrent receipts serialize.
func AddQuantity(tx *gorm.DB, productId int, delta int, unitCost decimal.Decimal) (*InventoryItem, error) {
	item, err := FirstOrCreateInventoryItem(tx, productId)
	if err != nil {
		return nil, err
	}

	if delta < 0 {
		return item, decrementInventoryItem(tx, item, -delta)
	}

	updates := map[string]interface{}{
		"quantity": gorm.Expr("quantity + ?", delta),
	}
	if delta > 0 && unitCost.IsPositive() {
		newAvg := BlendAverageCost(item.Quantity, item.AverageCost, delta, unitCost)
		updates["average_cost"] = newAvg
		updates["last_cost_price"] = unitCost
		item.AverageCost = newAvg
		item.LastCostPrice = unitCost
	}
	if err := tx.Model(&InventoryItem{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	item.Quantity += delta
	return item, nil
}

// decrementInventoryItem is the guarded decrement: the quantity check and the
// write are one statement, so two concurrent sales cannot both pass a
// separate availability read and drive stock negative.
func decrementInventoryItem(tx *gorm.DB, item *InventoryItem, qty int) error {
	result := tx.Model(&InventoryItem{}).
		Where("id = ? AND quantity >= ?", item.ID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		product, perr := GetProductTx(tx, item.ProductId)
		code := "?"
		if perr == nil {
			code = product.Code
		}
		return &InsufficientStockError{ProductCode: code, Requested: qty, Available: item.Quantity}
	}
	item.Quantity -= qty
	return nil
}

// CheckAvailable reports whether on-hand stock covers the requested quantity.
// This is a pre-condition gate only; the commit path still uses the guarded
// decrement, so a favourable answer here can never oversell.
func CheckAvailable(ctx context.Context, productId int, quantity int) (bool, error) {
	item, err := GetInventoryItem(ctx, productId)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return item.Quantity >= quantity, nil
}

func GetInventoryItem(ctx context.Context, productId int) (*InventoryItem, error) {
	db := config.GetDB()
	var item InventoryItem
	err := db.WithContext(ctx).Where("product_id = ?", productId).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("inventory item", productId)
		}
		return nil, err
	}
	return &item, nil
}

func GetInventoryItemTx(tx *gorm.DB, productId int) (*InventoryItem, error) {
	var item InventoryItem
	err := tx.Where("product_id = ?", productId).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("inventory item", productId)
		}
		return nil, err
	}
	return &item, nil
}

type InventoryRow struct {
	ProductId   int             `json:"product_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	Quantity    int             `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
	StockValue  decimal.Decimal `json:"stock_value"`
}

func ListInventory(ctx context.Context) ([]InventoryRow, error) {
	db := config.GetDB()
	var rows []InventoryRow
	err := db.WithContext(ctx).
		Table("inventory_items").
		Select(`inventory_items.product_id,
			products.code,
			products.name,
			products.unit,
			inventory_items.quantity,
			inventory_items.average_cost,
			inventory_items.quantity * inventory_items.average_cost AS stock_value`).
		Joins("JOIN products ON products.id = inventory_items.product_id").
		Order("products.code").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
