package workflow

import (
	"errors"

	"github.com/partsflow/spareparts_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// stockSource abstracts where a sale invoice line draws its stock from.
// REGULAR sales deduct from the main warehouse at weighted average cost;
// BRANCH sales deduct from the branch's own stock at the stamped branch
// sale price. Both deduct paths are guarded: oversell fails the whole
// transaction with InsufficientStockError.
type stockSource interface {
	// deduct removes qty units for one line and returns the resolved unit
	// price and the cost captured on the line.
	deduct(tx *gorm.DB, product *models.Product, qty int, clientPrice decimal.Decimal) (unitPrice, costPrice decimal.Decimal, err error)
	// restore puts qty units back during reversal. Restores never touch
	// average cost or the stamped branch sale price.
	restore(tx *gorm.DB, productId, qty int) error
	branchId() *int
}

type mainStockSource struct{}

func (mainStockSource) deduct(tx *gorm.DB, product *models.Product, qty int, clientPrice decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	item, err := models.GetInventoryItemTx(tx, product.ID)
	if err != nil {
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			// Never received: zero on hand.
			return decimal.Zero, decimal.Zero, &models.InsufficientStockError{
				ProductCode: product.Code,
				Requested:   qty,
				Available:   0,
			}
		}
		return decimal.Zero, decimal.Zero, err
	}
	// Stock is checked ahead of pricing so an oversold line surfaces as
	// InsufficientStockError even when its price is also wrong. The guarded
	// decrement below still closes the check-then-act window.
	if item.Quantity < qty {
		return decimal.Zero, decimal.Zero, &models.InsufficientStockError{
			ProductCode: product.Code,
			Requested:   qty,
			Available:   item.Quantity,
		}
	}
	unitPrice, err := ResolveUnitPrice(models.SaleTypeRegular, clientPrice, product, item.AverageCost, nil)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if _, err := models.AddQuantity(tx, product.ID, -qty, decimal.Zero); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return unitPrice, item.AverageCost, nil
}

func (mainStockSource) restore(tx *gorm.DB, productId, qty int) error {
	_, err := models.AddQuantity(tx, productId, qty, decimal.Zero)
	return err
}

func (mainStockSource) branchId() *int { return nil }

type branchStockSource struct {
	branch int
}

func (s branchStockSource) deduct(tx *gorm.DB, product *models.Product, qty int, clientPrice decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	stock, err := models.GetBranchInventoryTx(tx, s.branch, product.ID)
	if err != nil {
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			// Never transferred to this branch: treat as zero on hand.
			return decimal.Zero, decimal.Zero, &models.InsufficientStockError{
				ProductCode: product.Code,
				Requested:   qty,
				Available:   0,
			}
		}
		return decimal.Zero, decimal.Zero, err
	}
	if stock.Quantity < qty {
		return decimal.Zero, decimal.Zero, &models.InsufficientStockError{
			ProductCode: product.Code,
			Requested:   qty,
			Available:   stock.Quantity,
		}
	}
	unitPrice, err := ResolveUnitPrice(models.SaleTypeBranch, clientPrice, product, decimal.Zero, stock)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err := models.DecrementBranchStock(tx, s.branch, product.ID, qty); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	costPrice := decimal.Zero
	if price, err := models.GetBranchProductPriceTx(tx, s.branch, product.ID); err == nil {
		costPrice = price.TransferPrice
	}
	return unitPrice, costPrice, nil
}

func (s branchStockSource) restore(tx *gorm.DB, productId, qty int) error {
	return models.ReturnBranchStock(tx, s.branch, productId, qty)
}

func (s branchStockSource) branchId() *int {
	b := s.branch
	return &b
}

// resolveStockSource picks the source for a sale invoice. BRANCH invoices
// must carry a branch id.
func resolveStockSource(saleType models.SaleType, branchId *int) (stockSource, error) {
	switch saleType {
	case models.SaleTypeBranch:
		if branchId == nil || *branchId <= 0 {
			return nil, models.NewValidationError("branch_id", "branch_id is required for branch sales")
		}
		return branchStockSource{branch: *branchId}, nil
	case models.SaleTypeRegular:
		return mainStockSource{}, nil
	default:
		return nil, models.NewValidationError("sale_type", "sale_type must be REGULAR or BRANCH")
	}
}
