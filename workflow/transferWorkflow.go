package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/partsflow/spareparts_backend/config"
	"github.com/partsflow/spareparts_backend/models"
	"github.com/partsflow/spareparts_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransferToBranch moves stock from the main warehouse into a branch. Each
// line is priced at the branch's active transfer price, the warehouse is
// decremented (guarded), the branch inventory gains the quantity with the
// retail price stamped as its sale price, and a snapshot of the prices in
// force is appended. Posting is serialized per branch.
func TransferToBranch(ctx context.Context, input *models.NewBranchTransfer) (*models.BranchTransfer, error) {
	logger := config.GetLogger()

	if fieldErrors := utils.ValidateStruct(input); len(fieldErrors) > 0 {
		return nil, models.NewValidationError("input", strings.Join(fieldErrors, "; "))
	}
	if len(input.Items) == 0 {
		return nil, models.NewValidationError("items", "at least one item is required")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, models.NewValidationError("quantity", "quantity must be greater than zero")
		}
	}
	if err := utils.ValidateResourceId[models.Branch](ctx, input.BranchId); err != nil {
		return nil, models.NewNotFoundError("branch", input.BranchId)
	}

	transferDate := input.TransferDate
	if transferDate.IsZero() {
		transferDate = time.Now()
	}
	createdBy, _ := utils.GetUserIdFromContext(ctx)

	transfer := &models.BranchTransfer{
		BranchId:     input.BranchId,
		TransferDate: transferDate,
		Notes:        input.Notes,
		CreatedBy:    createdBy,
	}

	post := func(tx *gorm.DB) error {
		number, err := models.NextDocumentNumber(tx, "BT", "TR")
		if err != nil {
			return err
		}
		transfer.TransferNumber = number

		total := decimal.Zero
		for _, line := range input.Items {
			product, err := models.GetProductTx(tx, line.ProductId)
			if err != nil {
				return err
			}
			price, err := models.GetBranchProductPriceTx(tx, input.BranchId, line.ProductId)
			if err != nil {
				var notFound *models.NotFoundError
				if errors.As(err, &notFound) {
					return models.NewValidationError("items",
						"no active price is configured for product "+product.Code+" at this branch")
				}
				return err
			}
			lineTotal := price.TransferPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			transfer.Items = append(transfer.Items, models.BranchTransferItem{
				ProductId:     line.ProductId,
				Quantity:      line.Quantity,
				TransferPrice: price.TransferPrice,
				RetailPrice:   price.RetailPrice,
				LineTotal:     lineTotal,
			})
			total = total.Add(lineTotal)
		}
		transfer.TotalAmount = total

		if err := tx.Create(transfer).Error; err != nil {
			config.LogError(logger, "transferWorkflow.go", "TransferToBranch", "Create transfer", transfer.TransferNumber, err)
			return err
		}

		correlationId := models.NewCorrelationId()
		for _, item := range transfer.Items {
			if _, err := models.AddQuantity(tx, item.ProductId, -item.Quantity, decimal.Zero); err != nil {
				config.LogError(logger, "transferWorkflow.go", "TransferToBranch", "AddQuantity", item.ProductId, err)
				return err
			}
			if _, err := models.ReceiveBranchStock(tx, input.BranchId, item.ProductId, item.Quantity, item.RetailPrice); err != nil {
				return err
			}
			snapshot := &models.BranchPriceSnapshot{
				BranchId:      input.BranchId,
				ProductId:     item.ProductId,
				TransferPrice: item.TransferPrice,
				RetailPrice:   item.RetailPrice,
				TransferId:    transfer.ID,
			}
			if err := tx.Create(snapshot).Error; err != nil {
				return err
			}
			outgoing := &models.StockMovement{
				ProductId:     item.ProductId,
				QtyDelta:      -item.Quantity,
				UnitValue:     item.TransferPrice,
				ReferenceType: models.StockReferenceBranchTransfer,
				ReferenceId:   transfer.ID,
				CorrelationId: correlationId,
			}
			if err := models.AppendStockMovement(tx, outgoing); err != nil {
				return err
			}
			branchId := input.BranchId
			incoming := &models.StockMovement{
				ProductId:     item.ProductId,
				BranchId:      &branchId,
				QtyDelta:      item.Quantity,
				UnitValue:     item.TransferPrice,
				ReferenceType: models.StockReferenceBranchTransfer,
				ReferenceId:   transfer.ID,
				CorrelationId: correlationId,
			}
			if err := models.AppendStockMovement(tx, incoming); err != nil {
				return err
			}
		}
		return nil
	}

	// GET_LOCK is connection-scoped, so the lock and the posting transaction
	// must share one pinned connection.
	db := config.GetDB().WithContext(ctx)
	err := db.Connection(func(conn *gorm.DB) error {
		release, lockErr := AcquireBranchPostingLock(ctx, conn, input.BranchId)
		if lockErr != nil {
			config.LogError(logger, "transferWorkflow.go", "TransferToBranch", "AcquireBranchPostingLock", input.BranchId, lockErr)
			return lockErr
		}
		defer release()
		return conn.Transaction(post)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// DeleteBranchTransfer reverses a transfer: branch stock is decremented
// (guarded, so a transfer whose stock the branch already sold cannot be
// reversed), the warehouse gets the quantity back, and reversal movements
// are appended. The stamped branch sale price is left as-is.
func DeleteBranchTransfer(ctx context.Context, id int) error {
	logger := config.GetLogger()

	return config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		transfer, err := models.GetBranchTransferForPosting(tx, id)
		if err != nil {
			return err
		}
		correlationId := models.NewCorrelationId()
		for _, item := range transfer.Items {
			if err := models.DecrementBranchStock(tx, transfer.BranchId, item.ProductId, item.Quantity); err != nil {
				config.LogError(logger, "transferWorkflow.go", "DeleteBranchTransfer", "DecrementBranchStock", item.ProductId, err)
				return err
			}
			if _, err := models.AddQuantity(tx, item.ProductId, item.Quantity, decimal.Zero); err != nil {
				return err
			}
			branchId := transfer.BranchId
			outOfBranch := &models.StockMovement{
				ProductId:     item.ProductId,
				BranchId:      &branchId,
				QtyDelta:      -item.Quantity,
				UnitValue:     item.TransferPrice,
				ReferenceType: models.StockReferenceBranchTransfer,
				ReferenceId:   transfer.ID,
				IsReversal:    true,
				CorrelationId: correlationId,
			}
			if err := models.AppendStockMovement(tx, outOfBranch); err != nil {
				return err
			}
			backToMain := &models.StockMovement{
				ProductId:     item.ProductId,
				QtyDelta:      item.Quantity,
				UnitValue:     item.TransferPrice,
				ReferenceType: models.StockReferenceBranchTransfer,
				ReferenceId:   transfer.ID,
				IsReversal:    true,
				CorrelationId: correlationId,
			}
			if err := models.AppendStockMovement(tx, backToMain); err != nil {
				return err
			}
		}
		if err := tx.Where("branch_transfer_id = ?", id).Delete(&models.BranchTransferItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.BranchTransfer{}, id).Error
	})
}

// SetBranchProductPrice creates or replaces the centrally managed price row
// for a product at a branch. Prices already stamped on branch stock are not
// touched; the next transfer picks the new values up.
func SetBranchProductPrice(ctx context.Context, input *models.NewBranchProductPrice) (*models.BranchProductPrice, error) {
	if fieldErrors := utils.ValidateStruct(input); len(fieldErrors) > 0 {
		return nil, models.NewValidationError("input", strings.Join(fieldErrors, "; "))
	}
	if input.TransferPrice.IsNegative() {
		return nil, models.NewValidationError("transfer_price", "transfer_price cannot be negative")
	}
	if input.RetailPrice.IsNegative() {
		return nil, models.NewValidationError("retail_price", "retail_price cannot be negative")
	}
	if input.WholesalePrice != nil && input.WholesalePrice.IsNegative() {
		return nil, models.NewValidationError("wholesale_price", "wholesale_price cannot be negative")
	}
	if err := utils.ValidateResourceId[models.Branch](ctx, input.BranchId); err != nil {
		return nil, models.NewNotFoundError("branch", input.BranchId)
	}
	if err := utils.ValidateResourceId[models.Product](ctx, input.ProductId); err != nil {
		return nil, models.NewNotFoundError("product", input.ProductId)
	}

	var price *models.BranchProductPrice
	err := config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		price, err = models.UpsertBranchProductPrice(tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return price, nil
}
