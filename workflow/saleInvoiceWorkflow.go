package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/partsflow/spareparts_backend/config"
	"github.com/partsflow/spareparts_backend/models"
	"github.com/partsflow/spareparts_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateSaleInvoice posts a sale: the invoice number is drawn from the
// document sequence, each line deducts from its stock source with pricing
// enforced, cost is captured per line, and credit sales raise the customer's
// running balance. Everything runs in one transaction; a single failing line
// (stock or price) rolls back all of it.
func CreateSaleInvoice(ctx context.Context, input *models.NewSaleInvoice) (*models.SaleInvoice, error) {
	logger := config.GetLogger()

	if fieldErrors := utils.ValidateStruct(input); len(fieldErrors) > 0 {
		return nil, models.NewValidationError("input", strings.Join(fieldErrors, "; "))
	}
	if len(input.Items) == 0 {
		return nil, models.NewValidationError("items", "at least one item is required")
	}
	if !input.SaleType.IsValid() {
		return nil, models.NewValidationError("sale_type", "sale_type must be REGULAR or BRANCH")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, models.NewValidationError("payment_method", "invalid payment method")
	}
	if input.Discount.IsNegative() {
		return nil, models.NewValidationError("discount", "discount cannot be negative")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, models.NewValidationError("quantity", "quantity must be greater than zero")
		}
		if item.UnitPrice.IsNegative() {
			return nil, models.NewValidationError("unit_price", "unit_price cannot be negative")
		}
	}

	source, err := resolveStockSource(input.SaleType, input.BranchId)
	if err != nil {
		return nil, err
	}
	if input.SaleType == models.SaleTypeBranch {
		if input.CustomerId != nil {
			return nil, models.NewValidationError("customer_id", "branch sales carry a branch, not a customer")
		}
		if err := utils.ValidateResourceId[models.Branch](ctx, *input.BranchId); err != nil {
			return nil, models.NewNotFoundError("branch", *input.BranchId)
		}
	}
	if input.SaleType == models.SaleTypeRegular && input.BranchId != nil {
		return nil, models.NewValidationError("branch_id", "regular sales draw from the main warehouse")
	}
	if input.PaymentMethod.IsCredit() && input.CustomerId == nil {
		return nil, models.NewValidationError("customer_id", "customer_id is required for credit sales")
	}
	if input.CustomerId != nil {
		if err := utils.ValidateResourceId[models.Customer](ctx, *input.CustomerId); err != nil {
			return nil, models.NewNotFoundError("customer", *input.CustomerId)
		}
	}

	invoiceDate := input.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}
	createdBy, _ := utils.GetUserIdFromContext(ctx)

	invoice := &models.SaleInvoice{
		SaleType:      input.SaleType,
		CustomerId:    input.CustomerId,
		BranchId:      source.branchId(),
		InvoiceDate:   invoiceDate,
		PaymentMethod: input.PaymentMethod,
		Discount:      input.Discount,
		Notes:         input.Notes,
		CreatedBy:     createdBy,
	}

	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := models.NextDocumentNumber(tx, "SI", "SI")
		if err != nil {
			config.LogError(logger, "saleInvoiceWorkflow.go", "CreateSaleInvoice", "NextDocumentNumber", nil, err)
			return err
		}
		invoice.InvoiceNumber = number

		total := decimal.Zero
		correlationId := models.NewCorrelationId()
		for _, line := range input.Items {
			product, err := models.GetProductTx(tx, line.ProductId)
			if err != nil {
				return err
			}
			unitPrice, costPrice, err := source.deduct(tx, product, line.Quantity, line.UnitPrice)
			if err != nil {
				config.LogError(logger, "saleInvoiceWorkflow.go", "CreateSaleInvoice", "deduct", product.Code, err)
				return err
			}
			lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			invoice.Items = append(invoice.Items, models.SaleInvoiceItem{
				ProductId: line.ProductId,
				Quantity:  line.Quantity,
				UnitPrice: unitPrice,
				LineTotal: lineTotal,
				CostPrice: costPrice,
			})
			total = total.Add(lineTotal)
		}

		if input.Discount.GreaterThan(total) {
			return models.NewValidationError("discount", "discount cannot exceed the invoice total")
		}
		invoice.TotalAmount = total
		invoice.NetAmount = total.Sub(input.Discount)

		if err := tx.Create(invoice).Error; err != nil {
			config.LogError(logger, "saleInvoiceWorkflow.go", "CreateSaleInvoice", "Create invoice", invoice.InvoiceNumber, err)
			return err
		}

		for _, item := range invoice.Items {
			movement := &models.StockMovement{
				ProductId:     item.ProductId,
				BranchId:      source.branchId(),
				QtyDelta:      -item.Quantity,
				UnitValue:     item.UnitPrice,
				ReferenceType: models.StockReferenceSaleInvoice,
				ReferenceId:   invoice.ID,
				CorrelationId: correlationId,
			}
			if err := models.AppendStockMovement(tx, movement); err != nil {
				return err
			}
		}

		if input.PaymentMethod.IsCredit() && invoice.CustomerId != nil {
			if err := models.AdjustCustomerBalance(tx, *invoice.CustomerId, invoice.NetAmount); err != nil {
				config.LogError(logger, "saleInvoiceWorkflow.go", "CreateSaleInvoice", "AdjustCustomerBalance", *invoice.CustomerId, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// UpdateSaleInvoice reverses the stored invoice and applies the new content
// under the original invoice number, all in one transaction. Pricing and
// stock rules are enforced again for the new lines.
func UpdateSaleInvoice(ctx context.Context, id int, input *models.NewSaleInvoice) (*models.SaleInvoice, error) {
	logger := config.GetLogger()

	if fieldErrors := utils.ValidateStruct(input); len(fieldErrors) > 0 {
		return nil, models.NewValidationError("input", strings.Join(fieldErrors, "; "))
	}
	if len(input.Items) == 0 {
		return nil, models.NewValidationError("items", "at least one item is required")
	}
	if !input.SaleType.IsValid() {
		return nil, models.NewValidationError("sale_type", "sale_type must be REGULAR or BRANCH")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, models.NewValidationError("payment_method", "invalid payment method")
	}
	if input.Discount.IsNegative() {
		return nil, models.NewValidationError("discount", "discount cannot be negative")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, models.NewValidationError("quantity", "quantity must be greater than zero")
		}
		if item.UnitPrice.IsNegative() {
			return nil, models.NewValidationError("unit_price", "unit_price cannot be negative")
		}
	}

	source, err := resolveStockSource(input.SaleType, input.BranchId)
	if err != nil {
		return nil, err
	}
	if input.SaleType == models.SaleTypeBranch && input.CustomerId != nil {
		return nil, models.NewValidationError("customer_id", "branch sales carry a branch, not a customer")
	}
	if input.SaleType == models.SaleTypeRegular && input.BranchId != nil {
		return nil, models.NewValidationError("branch_id", "regular sales draw from the main warehouse")
	}
	if input.PaymentMethod.IsCredit() && input.CustomerId == nil {
		return nil, models.NewValidationError("customer_id", "customer_id is required for credit sales")
	}

	var updated *models.SaleInvoice
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := models.GetSaleInvoiceForPosting(tx, id)
		if err != nil {
			return err
		}
		if err := reverseSaleStock(tx, logger, invoice); err != nil {
			return err
		}
		if err := tx.Where("sale_invoice_id = ?", id).Delete(&models.SaleInvoiceItem{}).Error; err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]models.SaleInvoiceItem, 0, len(input.Items))
		correlationId := models.NewCorrelationId()
		for _, line := range input.Items {
			product, err := models.GetProductTx(tx, line.ProductId)
			if err != nil {
				return err
			}
			unitPrice, costPrice, err := source.deduct(tx, product, line.Quantity, line.UnitPrice)
			if err != nil {
				config.LogError(logger, "saleInvoiceWorkflow.go", "UpdateSaleInvoice", "deduct", product.Code, err)
				return err
			}
			lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			items = append(items, models.SaleInvoiceItem{
				SaleInvoiceId: id,
				ProductId:     line.ProductId,
				Quantity:      line.Quantity,
				UnitPrice:     unitPrice,
				LineTotal:     lineTotal,
				CostPrice:     costPrice,
			})
			total = total.Add(lineTotal)
			movement := &models.StockMovement{
				ProductId:     line.ProductId,
				BranchId:      source.branchId(),
				QtyDelta:      -line.Quantity,
				UnitValue:     unitPrice,
				ReferenceType: models.StockReferenceSaleInvoice,
				ReferenceId:   id,
				CorrelationId: correlationId,
			}
			if err := models.AppendStockMovement(tx, movement); err != nil {
				return err
			}
		}
		if input.Discount.GreaterThan(total) {
			return models.NewValidationError("discount", "discount cannot exceed the invoice total")
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		invoiceDate := input.InvoiceDate
		if invoiceDate.IsZero() {
			invoiceDate = invoice.InvoiceDate
		}
		invoice.SaleType = input.SaleType
		invoice.CustomerId = input.CustomerId
		invoice.BranchId = source.branchId()
		invoice.InvoiceDate = invoiceDate
		invoice.PaymentMethod = input.PaymentMethod
		invoice.Discount = input.Discount
		invoice.TotalAmount = total
		invoice.NetAmount = total.Sub(input.Discount)
		invoice.Notes = input.Notes
		if err := tx.Omit("Items").Save(invoice).Error; err != nil {
			return err
		}
		invoice.Items = items

		if input.PaymentMethod.IsCredit() && invoice.CustomerId != nil {
			if err := models.AdjustCustomerBalance(tx, *invoice.CustomerId, invoice.NetAmount); err != nil {
				return err
			}
		}
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSaleInvoice fully reverses a sale: stock returns to its source,
// reversal movements are appended, and a credit sale's balance effect is
// undone, then the invoice rows are removed.
func DeleteSaleInvoice(ctx context.Context, id int) error {
	logger := config.GetLogger()

	return config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := models.GetSaleInvoiceForPosting(tx, id)
		if err != nil {
			return err
		}
		if err := reverseSaleStock(tx, logger, invoice); err != nil {
			return err
		}
		if err := tx.Where("sale_invoice_id = ?", id).Delete(&models.SaleInvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.SaleInvoice{}, id).Error
	})
}

// reverseSaleStock restores each line to the invoice's stock source, appends
// reversal movements, and rewinds the customer balance for credit sales.
// Restores never touch average cost or the stamped branch sale price.
func reverseSaleStock(tx *gorm.DB, logger *logrus.Logger, invoice *models.SaleInvoice) error {
	source, err := resolveStockSource(invoice.SaleType, invoice.BranchId)
	if err != nil {
		return err
	}
	correlationId := models.NewCorrelationId()
	for _, item := range invoice.Items {
		if err := source.restore(tx, item.ProductId, item.Quantity); err != nil {
			config.LogError(logger, "saleInvoiceWorkflow.go", "reverseSaleStock", "restore", item.ProductId, err)
			return err
		}
		movement := &models.StockMovement{
			ProductId:     item.ProductId,
			BranchId:      invoice.BranchId,
			QtyDelta:      item.Quantity,
			UnitValue:     item.UnitPrice,
			ReferenceType: models.StockReferenceSaleInvoice,
			ReferenceId:   invoice.ID,
			IsReversal:    true,
			CorrelationId: correlationId,
		}
		if err := models.AppendStockMovement(tx, movement); err != nil {
			return err
		}
	}
	if invoice.PaymentMethod.IsCredit() && invoice.CustomerId != nil {
		if err := models.AdjustCustomerBalance(tx, *invoice.CustomerId, invoice.NetAmount.Neg()); err != nil {
			return err
		}
	}
	return nil
}
