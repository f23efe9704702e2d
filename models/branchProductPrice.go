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

// BranchProductPrice is the centrally managed price row for a product at a
// branch: the transfer price the warehouse charges the branch, the retail
// price the branch must charge customers, and an optional wholesale price.
// At most one active row exists per (branch, product).
type BranchProductPrice struct {
	ID             int              `gorm:"primary_key" json:"id"`
	BranchId       int              `gorm:"uniqueIndex:idx_branch_product_price;not null" json:"branch_id"`
	ProductId      int              `gorm:"uniqueIndex:idx_branch_product_price;not null" json:"product_id"`
	TransferPrice  decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"transfer_price"`
	RetailPrice    decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"retail_price"`
	WholesalePrice *decimal.Decimal `gorm:"type:decimal(20,4)" json:"wholesale_price"`
	IsActive       *bool            `gorm:"not null;default:true" json:"is_active"`
	EffectiveDate  time.Time        `gorm:"not null" json:"effective_date"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// BranchPriceSnapshot is the append-only record of the prices in force when a
// transfer stamped them onto branch stock. Historical branch sales stay
// auditable even after central pricing changes.
type BranchPriceSnapshot struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BranchId      int             `gorm:"index:idx_price_snap_branch_product;not null" json:"branch_id"`
	ProductId     int             `gorm:"index:idx_price_snap_branch_product;not null" json:"product_id"`
	TransferPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"transfer_price"`
	RetailPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"retail_price"`
	TransferId    int             `gorm:"index;not null" json:"transfer_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewBranchProductPrice struct {
	BranchId       int              `json:"branch_id" validate:"required,gt=0"`
	ProductId      int              `json:"product_id" validate:"required,gt=0"`
	TransferPrice  decimal.Decimal  `json:"transfer_price"`
	RetailPrice    decimal.Decimal  `json:"retail_price"`
	WholesalePrice *decimal.Decimal `json:"wholesale_price"`
	EffectiveDate  *time.Time       `json:"effective_date"`
}

func branchPriceCacheKey(branchId, productId int) string {
	return fmt.Sprintf("branchprice:%d:%d", branchId, productId)
}

func GetBranchProductPrice(ctx context.Context, branchId, productId int) (*BranchProductPrice, error) {
	var price BranchProductPrice
	key := branchPriceCacheKey(branchId, productId)
	if ok, _ := config.GetRedisObject(key, &price); ok {
		return &price, nil
	}

	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("branch_id = ? AND product_id = ? AND is_active = ?", branchId, productId, true).
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("branch price", fmt.Sprintf("branch=%d product=%d", branchId, productId))
		}
		return nil, err
	}
	_ = config.SetRedisObject(key, &price, 10*time.Minute)
	return &price, nil
}

func GetBranchProductPriceTx(tx *gorm.DB, branchId, productId int) (*BranchProductPrice, error) {
	var price BranchProductPrice
	err := tx.Where("branch_id = ? AND product_id = ? AND is_active = ?", branchId, productId, true).
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("branch price", fmt.Sprintf("branch=%d product=%d", branchId, productId))
		}
		return nil, err
	}
	return &price, nil
}

// UpsertBranchProductPrice creates or replaces the single active price row
// for (branch, product) and drops the cache entry.
func UpsertBranchProductPrice(tx *gorm.DB, input *NewBranchProductPrice) (*BranchProductPrice, error) {
	effective := time.Now().UTC()
	if input.EffectiveDate != nil {
		effective = *input.EffectiveDate
	}

	price := BranchProductPrice{
		BranchId:      input.BranchId,
		ProductId:     input.ProductId,
		TransferPrice: input.TransferPrice,
		RetailPrice:   input.RetailPrice,
	}
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND product_id = ?", input.BranchId, input.ProductId).
		FirstOrCreate(&price)
	if result.Error != nil {
		return nil, result.Error
	}

	price.TransferPrice = input.TransferPrice
	price.RetailPrice = input.RetailPrice
	price.WholesalePrice = input.WholesalePrice
	price.EffectiveDate = effective
	active := true
	price.IsActive = &active
	if err := tx.Save(&price).Error; err != nil {
		return nil, err
	}

	_ = config.DeleteRedisKeys(branchPriceCacheKey(input.BranchId, input.ProductId))
	return &price, nil
}

func ListBranchProductPrices(ctx context.Context, branchId int) ([]BranchProductPrice, error) {
	db := config.GetDB()
	var prices []BranchProductPrice
	err := db.WithContext(ctx).
		Where("branch_id = ? AND is_active = ?", branchId, true).
		Order("product_id").
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}
