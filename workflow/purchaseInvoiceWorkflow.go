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

// CreatePurchaseInvoice records a supplier receipt: header and items are
// written, the main warehouse gains each line's quantity, the weighted
// average cost is re-blended, and one movement row per line is appended.
// Everything runs in one transaction; any line failure rolls back the whole
// invoice.
func CreatePurchaseInvoice(ctx context.Context, input *models.NewPurchaseInvoice) (*models.PurchaseInvoice, error) {
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
		if !item.UnitPrice.IsPositive() {
			return nil, models.NewValidationError("unit_price", "unit_price must be greater than zero")
		}
	}
	if err := utils.ValidateResourceId[models.Supplier](ctx, input.SupplierId); err != nil {
		return nil, models.NewNotFoundError("supplier", input.SupplierId)
	}

	invoiceDate := input.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}
	createdBy, _ := utils.GetUserIdFromContext(ctx)

	invoice := &models.PurchaseInvoice{
		InvoiceNumber: input.InvoiceNumber,
		SupplierId:    input.SupplierId,
		InvoiceDate:   invoiceDate,
		DueDate:       input.DueDate,
		PaymentType:   input.PaymentType,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
		CreatedBy:     createdBy,
	}

	err := config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PurchaseInvoice{}).
			Where("invoice_number = ?", input.InvoiceNumber).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.NewDuplicateError("purchase invoice", "invoice_number", input.InvoiceNumber)
		}

		total := decimal.Zero
		for _, line := range input.Items {
			lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			invoice.Items = append(invoice.Items, models.PurchaseInvoiceItem{
				ProductId: line.ProductId,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				LineTotal: lineTotal,
			})
			total = total.Add(lineTotal)
		}
		invoice.TotalAmount = total
		if input.PaymentType == models.PaymentTypeCash {
			invoice.Status = models.PurchaseInvoiceStatusPaid
			invoice.PaidAmount = total
			invoice.RemainingAmount = decimal.Zero
		} else {
			invoice.Status = models.PurchaseInvoiceStatusPending
			invoice.PaidAmount = decimal.Zero
			invoice.RemainingAmount = total
		}

		if err := tx.Create(invoice).Error; err != nil {
			config.LogError(logger, "purchaseInvoiceWorkflow.go", "CreatePurchaseInvoice", "Create invoice", invoice.InvoiceNumber, err)
			return err
		}

		correlationId := models.NewCorrelationId()
		for _, item := range invoice.Items {
			if _, err := models.GetProductTx(tx, item.ProductId); err != nil {
				return err
			}
			if _, err := models.AddQuantity(tx, item.ProductId, item.Quantity, item.UnitPrice); err != nil {
				config.LogError(logger, "purchaseInvoiceWorkflow.go", "CreatePurchaseInvoice", "AddQuantity", item.ProductId, err)
				return err
			}
			movement := &models.StockMovement{
				ProductId:     item.ProductId,
				QtyDelta:      item.Quantity,
				UnitValue:     item.UnitPrice,
				ReferenceType: models.StockReferencePurchaseInvoice,
				ReferenceId:   invoice.ID,
				CorrelationId: correlationId,
			}
			if err := models.AppendStockMovement(tx, movement); err != nil {
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

// UpdatePurchaseInvoice replaces a PENDING invoice's content by reversing the
// old stock effect and re-applying the new one inside a single transaction.
// PAID invoices are immutable.
func UpdatePurchaseInvoice(ctx context.Context, id int, input *models.NewPurchaseInvoice) (*models.PurchaseInvoice, error) {
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
		if !item.UnitPrice.IsPositive() {
			return nil, models.NewValidationError("unit_price", "unit_price must be greater than zero")
		}
	}
	if err := utils.ValidateResourceId[models.Supplier](ctx, input.SupplierId); err != nil {
		return nil, models.NewNotFoundError("supplier", input.SupplierId)
	}

	var updated *models.PurchaseInvoice
	err := config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := models.GetPurchaseInvoiceForPosting(tx, id)
		if err != nil {
			return err
		}
		if invoice.Status != models.PurchaseInvoiceStatusPending {
			return &models.InvalidStateError{
				Entity:  "purchase invoice",
				ID:      id,
				State:   string(invoice.Status),
				Message: "only PENDING invoices can be updated",
			}
		}
		if input.InvoiceNumber != invoice.InvoiceNumber {
			var count int64
			if err := tx.Model(&models.PurchaseInvoice{}).
				Where("invoice_number = ? AND id <> ?", input.InvoiceNumber, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return models.NewDuplicateError("purchase invoice", "invoice_number", input.InvoiceNumber)
			}
		}

		if err := reversePurchaseStock(tx, logger, invoice); err != nil {
			return err
		}
		if err := tx.Where("purchase_invoice_id = ?", id).Delete(&models.PurchaseInvoiceItem{}).Error; err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]models.PurchaseInvoiceItem, 0, len(input.Items))
		correlationId := models.NewCorrelationId()
		for _, line := range input.Items {
			if _, err := models.GetProductTx(tx, line.ProductId); err != nil {
				return err
			}
			lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			items = append(items, models.PurchaseInvoiceItem{
				PurchaseInvoiceId: id,
				ProductId:         line.ProductId,
				Quantity:          line.Quantity,
				UnitPrice:         line.UnitPrice,
				LineTotal:         lineTotal,
			})
			total = total.Add(lineTotal)
			if _, err := models.AddQuantity(tx, line.ProductId, line.Quantity, line.UnitPrice); err != nil {
				config.LogError(logger, "purchaseInvoiceWorkflow.go", "UpdatePurchaseInvoice", "AddQuantity", line.ProductId, err)
				return err
			}
			movement := &models.StockMovement{
				ProductId:     line.ProductId,
				QtyDelta:      line.Quantity,
				UnitValue:     line.UnitPrice,
				ReferenceType: models.StockReferencePurchaseInvoice,
				ReferenceId:   id,
				CorrelationId: correlationId,
			}
			if err := models.AppendStockMovement(tx, movement); err != nil {
				return err
			}
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		invoiceDate := input.InvoiceDate
		if invoiceDate.IsZero() {
			invoiceDate = invoice.InvoiceDate
		}
		invoice.InvoiceNumber = input.InvoiceNumber
		invoice.SupplierId = input.SupplierId
		invoice.InvoiceDate = invoiceDate
		invoice.DueDate = input.DueDate
		invoice.PaymentType = input.PaymentType
		invoice.PaymentMethod = input.PaymentMethod
		invoice.Notes = input.Notes
		invoice.TotalAmount = total
		if input.PaymentType == models.PaymentTypeCash {
			invoice.Status = models.PurchaseInvoiceStatusPaid
			invoice.PaidAmount = total
			invoice.RemainingAmount = decimal.Zero
		} else {
			invoice.Status = models.PurchaseInvoiceStatusPending
			invoice.PaidAmount = decimal.Zero
			invoice.RemainingAmount = total
		}
		invoice.Items = items
		if err := tx.Omit("Items").Save(invoice).Error; err != nil {
			return err
		}
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePurchaseInvoice fully reverses a PENDING invoice: each line's
// quantity is removed from the warehouse and a reversal movement is
// appended. The weighted average cost is never rewound.
func DeletePurchaseInvoice(ctx context.Context, id int) error {
	logger := config.GetLogger()

	return config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := models.GetPurchaseInvoiceForPosting(tx, id)
		if err != nil {
			return err
		}
		if invoice.Status != models.PurchaseInvoiceStatusPending {
			return &models.InvalidStateError{
				Entity:  "purchase invoice",
				ID:      id,
				State:   string(invoice.Status),
				Message: "only PENDING invoices can be deleted",
			}
		}
		if err := reversePurchaseStock(tx, logger, invoice); err != nil {
			return err
		}
		if err := tx.Where("purchase_invoice_id = ?", id).Delete(&models.PurchaseInvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PurchaseInvoice{}, id).Error
	})
}

// MarkPurchaseInvoicePaid settles a credit invoice. The stock effect already
// happened at creation; this only moves the money fields.
func MarkPurchaseInvoicePaid(ctx context.Context, id int, method models.PaymentMethod) (*models.PurchaseInvoice, error) {
	if !method.IsValid() {
		return nil, models.NewValidationError("payment_method", "invalid payment method")
	}

	var updated *models.PurchaseInvoice
	err := config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := models.GetPurchaseInvoiceForPosting(tx, id)
		if err != nil {
			return err
		}
		if invoice.Status == models.PurchaseInvoiceStatusPaid {
			return &models.InvalidStateError{
				Entity:  "purchase invoice",
				ID:      id,
				State:   string(invoice.Status),
				Message: "invoice is already paid",
			}
		}
		invoice.Status = models.PurchaseInvoiceStatusPaid
		invoice.PaymentMethod = &method
		invoice.PaidAmount = invoice.TotalAmount
		invoice.RemainingAmount = decimal.Zero
		if err := tx.Omit("Items").Save(invoice).Error; err != nil {
			return err
		}
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// reversePurchaseStock removes every line's quantity via the guarded
// decrement. If a sale has already consumed the received stock the decrement
// fails with InsufficientStockError and the reversal is rejected.
func reversePurchaseStock(tx *gorm.DB, logger *logrus.Logger, invoice *models.PurchaseInvoice) error {
	correlationId := models.NewCorrelationId()
	for _, item := range invoice.Items {
		if _, err := models.AddQuantity(tx, item.ProductId, -item.Quantity, decimal.Zero); err != nil {
			config.LogError(logger, "purchaseInvoiceWorkflow.go", "reversePurchaseStock", "AddQuantity", item.ProductId, err)
			return err
		}
		movement := &models.StockMovement{
			ProductId:     item.ProductId,
			QtyDelta:      -item.Quantity,
			UnitValue:     item.UnitPrice,
			ReferenceType: models.StockReferencePurchaseInvoice,
			ReferenceId:   invoice.ID,
			IsReversal:    true,
			CorrelationId: correlationId,
		}
		if err := models.AppendStockMovement(tx, movement); err != nil {
			return err
		}
	}
	return nil
}
