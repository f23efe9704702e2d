package workflow

import (
	"github.com/partsflow/spareparts_backend/models"
	"github.com/shopspring/decimal"
)

// ResolveUnitPrice selects the unit price for one sale line. Pure: no lookups,
// no side effects; callers pass the catalog and stock data they already hold.
//
// REGULAR sales trust the client price (per-line discounts and haggling happen
// at the counter); when the client sends no price the product's base price is
// used, and failing that the warehouse average cost.
//
// BRANCH sales are non-negotiable: the line price must equal the branch sale
// price stamped on the branch's stock at transfer time. The asymmetry is
// deliberate — branch margins are set centrally.
func ResolveUnitPrice(saleType models.SaleType, clientPrice decimal.Decimal, product *models.Product, averageCost decimal.Decimal, branchStock *models.BranchInventory) (decimal.Decimal, error) {
	switch saleType {
	case models.SaleTypeBranch:
		if branchStock == nil {
			return decimal.Zero, models.NewValidationError("branch_id", "branch stock is required for branch sales")
		}
		required := branchStock.BranchSalePrice
		if clientPrice.IsZero() {
			return required, nil
		}
		if !clientPrice.Equal(required) {
			return decimal.Zero, &models.PriceMismatchError{
				ProductCode:   product.Code,
				RequiredPrice: required,
				OfferedPrice:  clientPrice,
			}
		}
		return required, nil
	default:
		if clientPrice.IsPositive() {
			return clientPrice, nil
		}
		if product.UnitPrice != nil && product.UnitPrice.IsPositive() {
			return *product.UnitPrice, nil
		}
		return averageCost, nil
	}
}
