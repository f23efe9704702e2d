package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/partsflow/spareparts_backend/config"
	"github.com/partsflow/spareparts_backend/models"
	"github.com/partsflow/spareparts_backend/utils"
	"github.com/partsflow/spareparts_backend/workflow"
	"github.com/shopspring/decimal"
)

// setupEngineTest boots a throwaway MySQL container, connects the global DB,
// migrates the schema, and returns a context carrying a user identity.
func setupEngineTest(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "partsflow_test")

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}
	models.MigrateTable()

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUsernameInContext(ctx, "test@local")
	return ctx
}

func seedProduct(t *testing.T, ctx context.Context, code string) *models.Product {
	t.Helper()
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Code: code,
		Name: "Part " + code,
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", code, err)
	}
	return product
}

func seedSupplier(t *testing.T, ctx context.Context) *models.Supplier {
	t.Helper()
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{
		Code: "SUP-001",
		Name: "Al Noor Parts Trading",
	})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	return supplier
}

func receiveStock(t *testing.T, ctx context.Context, supplierId, productId, qty int, unitPrice string) *models.PurchaseInvoice {
	t.Helper()
	invoice, err := workflow.CreatePurchaseInvoice(ctx, &models.NewPurchaseInvoice{
		InvoiceNumber: fmt.Sprintf("PI-%d", time.Now().UnixNano()),
		SupplierId:    supplierId,
		PaymentType:   models.PaymentTypeCredit,
		Items: []models.NewPurchaseInvoiceItem{
			{ProductId: productId, Quantity: qty, UnitPrice: mustDecimal(t, unitPrice)},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseInvoice: %v", err)
	}
	return invoice
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return v
}

func TestSaleInvoiceInsufficientStockRollsBackEverything(t *testing.T) {
	ctx := setupEngineTest(t)
	db := config.GetDB()

	supplier := seedSupplier(t, ctx)
	pad := seedProduct(t, ctx, "BRK-PAD-01")
	filter := seedProduct(t, ctx, "OIL-FLT-07")
	receiveStock(t, ctx, supplier.ID, pad.ID, 10, "5")
	receiveStock(t, ctx, supplier.ID, filter.ID, 5, "3")

	// Second line oversells: the whole invoice must roll back, including the
	// first line's already-applied decrement.
	_, err := workflow.CreateSaleInvoice(ctx, &models.NewSaleInvoice{
		SaleType:      models.SaleTypeRegular,
		PaymentMethod: models.PaymentMethodCash,
		Items: []models.NewSaleInvoiceItem{
			{ProductId: pad.ID, Quantity: 4, UnitPrice: mustDecimal(t, "9")},
			{ProductId: filter.ID, Quantity: 8, UnitPrice: mustDecimal(t, "6")},
		},
	})
	var insufficient *models.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if insufficient.Requested != 8 || insufficient.Available != 5 {
		t.Fatalf("insufficient = %+v, want requested 8 available 5", insufficient)
	}

	padItem, err := models.GetInventoryItem(ctx, pad.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if padItem.Quantity != 10 {
		t.Fatalf("pad quantity = %d, want 10 (rolled back)", padItem.Quantity)
	}

	var invoiceCount int64
	if err := db.Model(&models.SaleInvoice{}).Count(&invoiceCount).Error; err != nil {
		t.Fatalf("count sale invoices: %v", err)
	}
	if invoiceCount != 0 {
		t.Fatalf("sale invoice count = %d, want 0", invoiceCount)
	}
	var movementCount int64
	if err := db.Model(&models.StockMovement{}).
		Where("reference_type = ?", models.StockReferenceSaleInvoice).
		Count(&movementCount).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movementCount != 0 {
		t.Fatalf("sale movement count = %d, want 0", movementCount)
	}
}

func TestPurchaseInvoiceDeleteReversesStockToZero(t *testing.T) {
	ctx := setupEngineTest(t)

	supplier := seedSupplier(t, ctx)
	pad := seedProduct(t, ctx, "BRK-PAD-01")
	invoice := receiveStock(t, ctx, supplier.ID, pad.ID, 10, "5")

	if err := workflow.DeletePurchaseInvoice(ctx, invoice.ID); err != nil {
		t.Fatalf("DeletePurchaseInvoice: %v", err)
	}

	item, err := models.GetInventoryItem(ctx, pad.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if item.Quantity != 0 {
		t.Fatalf("quantity = %d, want 0 after reversal", item.Quantity)
	}
	// Reversal does not rewind the blended average.
	if !item.AverageCost.Equal(mustDecimal(t, "5")) {
		t.Fatalf("average cost = %s, want 5", item.AverageCost)
	}

	db := config.GetDB()
	var reversals int64
	if err := db.Model(&models.StockMovement{}).
		Where("reference_type = ? AND is_reversal = ?", models.StockReferencePurchaseInvoice, true).
		Count(&reversals).Error; err != nil {
		t.Fatalf("count reversals: %v", err)
	}
	if reversals != 1 {
		t.Fatalf("reversal movement count = %d, want 1", reversals)
	}
}

func TestWeightedAverageBlendsAcrossReceipts(t *testing.T) {
	ctx := setupEngineTest(t)

	supplier := seedSupplier(t, ctx)
	pad := seedProduct(t, ctx, "BRK-PAD-01")
	receiveStock(t, ctx, supplier.ID, pad.ID, 10, "5")
	receiveStock(t, ctx, supplier.ID, pad.ID, 10, "9")

	item, err := models.GetInventoryItem(ctx, pad.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if item.Quantity != 20 {
		t.Fatalf("quantity = %d, want 20", item.Quantity)
	}
	if !item.AverageCost.Equal(mustDecimal(t, "7")) {
		t.Fatalf("average cost = %s, want 7", item.AverageCost)
	}
	if !item.LastCostPrice.Equal(mustDecimal(t, "9")) {
		t.Fatalf("last cost = %s, want 9", item.LastCostPrice)
	}
}

func TestCreditSaleRaisesCustomerBalance(t *testing.T) {
	ctx := setupEngineTest(t)

	supplier := seedSupplier(t, ctx)
	pad := seedProduct(t, ctx, "BRK-PAD-01")
	receiveStock(t, ctx, supplier.ID, pad.ID, 10, "5")

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{
		Code: "CUS-001",
		Name: "Haitham Garage",
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if !customer.CurrentBalance.IsZero() {
		t.Fatalf("starting balance = %s, want 0", customer.CurrentBalance)
	}

	invoice, err := workflow.CreateSaleInvoice(ctx, &models.NewSaleInvoice{
		SaleType:      models.SaleTypeRegular,
		CustomerId:    &customer.ID,
		PaymentMethod: models.PaymentMethodCredit,
		Items: []models.NewSaleInvoiceItem{
			{ProductId: pad.ID, Quantity: 10, UnitPrice: mustDecimal(t, "15")},
		},
	})
	if err != nil {
		t.Fatalf("CreateSaleInvoice: %v", err)
	}
	if !invoice.NetAmount.Equal(mustDecimal(t, "150")) {
		t.Fatalf("net amount = %s, want 150", invoice.NetAmount)
	}
	if !strings.HasPrefix(invoice.InvoiceNumber, "SI-") {
		t.Fatalf("invoice number = %q, want SI- prefix", invoice.InvoiceNumber)
	}

	customer, err = models.GetCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if !customer.CurrentBalance.Equal(mustDecimal(t, "150")) {
		t.Fatalf("balance = %s, want 150", customer.CurrentBalance)
	}

	// Deleting the invoice rewinds the balance.
	if err := workflow.DeleteSaleInvoice(ctx, invoice.ID); err != nil {
		t.Fatalf("DeleteSaleInvoice: %v", err)
	}
	customer, err = models.GetCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if !customer.CurrentBalance.IsZero() {
		t.Fatalf("balance after delete = %s, want 0", customer.CurrentBalance)
	}
}

func TestBranchTransferStampsAndEnforcesSalePrice(t *testing.T) {
	ctx := setupEngineTest(t)

	supplier := seedSupplier(t, ctx)
	filter := seedProduct(t, ctx, "OIL-FLT-07")
	receiveStock(t, ctx, supplier.ID, filter.ID, 20, "30")

	branch, err := models.CreateBranch(ctx, &models.NewBranch{Code: "BR-01", Name: "Dammam Branch"})
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	_, err = workflow.SetBranchProductPrice(ctx, &models.NewBranchProductPrice{
		BranchId:      branch.ID,
		ProductId:     filter.ID,
		TransferPrice: mustDecimal(t, "35"),
		RetailPrice:   mustDecimal(t, "42"),
	})
	if err != nil {
		t.Fatalf("SetBranchProductPrice: %v", err)
	}

	transfer, err := workflow.TransferToBranch(ctx, &models.NewBranchTransfer{
		BranchId: branch.ID,
		Items:    []models.NewBranchTransferItem{{ProductId: filter.ID, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("TransferToBranch: %v", err)
	}
	if !strings.HasPrefix(transfer.TransferNumber, "TR-") {
		t.Fatalf("transfer number = %q, want TR- prefix", transfer.TransferNumber)
	}
	if !transfer.TotalAmount.Equal(mustDecimal(t, "350")) {
		t.Fatalf("transfer total = %s, want 350 (10 x transfer price)", transfer.TotalAmount)
	}

	stock, err := models.GetBranchInventory(ctx, branch.ID, filter.ID)
	if err != nil {
		t.Fatalf("GetBranchInventory: %v", err)
	}
	if stock.Quantity != 10 {
		t.Fatalf("branch quantity = %d, want 10", stock.Quantity)
	}
	if !stock.BranchSalePrice.Equal(mustDecimal(t, "42")) {
		t.Fatalf("stamped sale price = %s, want 42", stock.BranchSalePrice)
	}

	main, err := models.GetInventoryItem(ctx, filter.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if main.Quantity != 10 {
		t.Fatalf("main quantity = %d, want 10 after transfer", main.Quantity)
	}

	// Selling at a price other than the stamped one is rejected.
	_, err = workflow.CreateSaleInvoice(ctx, &models.NewSaleInvoice{
		SaleType:      models.SaleTypeBranch,
		BranchId:      &branch.ID,
		PaymentMethod: models.PaymentMethodCash,
		Items: []models.NewSaleInvoiceItem{
			{ProductId: filter.ID, Quantity: 2, UnitPrice: mustDecimal(t, "41")},
		},
	})
	var mismatch *models.PriceMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want PriceMismatchError", err)
	}

	// The stamped price goes through.
	invoice, err := workflow.CreateSaleInvoice(ctx, &models.NewSaleInvoice{
		SaleType:      models.SaleTypeBranch,
		BranchId:      &branch.ID,
		PaymentMethod: models.PaymentMethodCash,
		Items: []models.NewSaleInvoiceItem{
			{ProductId: filter.ID, Quantity: 2, UnitPrice: mustDecimal(t, "42")},
		},
	})
	if err != nil {
		t.Fatalf("CreateSaleInvoice at stamped price: %v", err)
	}
	if !invoice.TotalAmount.Equal(mustDecimal(t, "84")) {
		t.Fatalf("total = %s, want 84", invoice.TotalAmount)
	}
	if !invoice.Items[0].CostPrice.Equal(mustDecimal(t, "35")) {
		t.Fatalf("line cost = %s, want transfer price 35", invoice.Items[0].CostPrice)
	}

	stock, err = models.GetBranchInventory(ctx, branch.ID, filter.ID)
	if err != nil {
		t.Fatalf("GetBranchInventory: %v", err)
	}
	if stock.Quantity != 8 {
		t.Fatalf("branch quantity = %d, want 8 after sale", stock.Quantity)
	}
}

func TestDeleteSaleInvoiceRestoresMainStock(t *testing.T) {
	ctx := setupEngineTest(t)
	db := config.GetDB()

	supplier := seedSupplier(t, ctx)
	pad := seedProduct(t, ctx, "BRK-PAD-01")
	receiveStock(t, ctx, supplier.ID, pad.ID, 10, "5")

	invoice, err := workflow.CreateSaleInvoice(ctx, &models.NewSaleInvoice{
		SaleType:      models.SaleTypeRegular,
		PaymentMethod: models.PaymentMethodCash,
		Items: []models.NewSaleInvoiceItem{
			{ProductId: pad.ID, Quantity: 4, UnitPrice: mustDecimal(t, "9")},
		},
	})
	if err != nil {
		t.Fatalf("CreateSaleInvoice: %v", err)
	}
	item, err := models.GetInventoryItem(ctx, pad.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if item.Quantity != 6 {
		t.Fatalf("quantity after sale = %d, want 6", item.Quantity)
	}

	if err := workflow.DeleteSaleInvoice(ctx, invoice.ID); err != nil {
		t.Fatalf("DeleteSaleInvoice: %v", err)
	}
	item, err = models.GetInventoryItem(ctx, pad.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if item.Quantity != 10 {
		t.Fatalf("quantity after delete = %d, want 10 (restored)", item.Quantity)
	}

	var reversalCount int64
	if err := db.Model(&models.StockMovement{}).
		Where("reference_type = ? AND is_reversal = ?", models.StockReferenceSaleInvoice, true).
		Count(&reversalCount).Error; err != nil {
		t.Fatalf("count reversal movements: %v", err)
	}
	if reversalCount != 1 {
		t.Fatalf("reversal movement count = %d, want 1", reversalCount)
	}
}

func TestUpdateSaleInvoiceReappliesStock(t *testing.T) {
	ctx := setupEngineTest(t)

	supplier := seedSupplier(t, ctx)
	pad := seedProduct(t, ctx, "BRK-PAD-01")
	receiveStock(t, ctx, supplier.ID, pad.ID, 10, "5")

	invoice, err := workflow.CreateSaleInvoice(ctx, &models.NewSaleInvoice{
		SaleType:      models.SaleTypeRegular,
		PaymentMethod: models.PaymentMethodCash,
		Items: []models.NewSaleInvoiceItem{
			{ProductId: pad.ID, Quantity: 4, UnitPrice: mustDecimal(t, "9")},
		},
	})
	if err != nil {
		t.Fatalf("CreateSaleInvoice: %v", err)
	}

	// A rejected update leaves the posted stock alone.
	_, err = workflow.UpdateSaleInvoice(ctx, invoice.ID, &models.NewSaleInvoice{
		SaleType:      models.SaleTypeRegular,
		PaymentMethod: models.PaymentMethod("BARTER"),
		Items: []models.NewSaleInvoiceItem{
			{ProductId: pad.ID, Quantity: 7, UnitPrice: mustDecimal(t, "9")},
		},
	})
	var validation *models.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	item, err := models.GetInventoryItem(ctx, pad.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if item.Quantity != 6 {
		t.Fatalf("quantity after rejected update = %d, want 6 (untouched)", item.Quantity)
	}

	updated, err := workflow.UpdateSaleInvoice(ctx, invoice.ID, &models.NewSaleInvoice{
		SaleType:      models.SaleTypeRegular,
		PaymentMethod: models.PaymentMethodCash,
		Items: []models.NewSaleInvoiceItem{
			{ProductId: pad.ID, Quantity: 7, UnitPrice: mustDecimal(t, "9")},
		},
	})
	if err != nil {
		t.Fatalf("UpdateSaleInvoice: %v", err)
	}
	if updated.InvoiceNumber != invoice.InvoiceNumber {
		t.Fatalf("invoice number changed: %q -> %q", invoice.InvoiceNumber, updated.InvoiceNumber)
	}
	if !updated.NetAmount.Equal(mustDecimal(t, "63")) {
		t.Fatalf("net amount = %s, want 63", updated.NetAmount)
	}
	item, err = models.GetInventoryItem(ctx, pad.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if item.Quantity != 3 {
		t.Fatalf("quantity after update = %d, want 3 (old 4 restored, new 7 deducted)", item.Quantity)
	}
}

func TestDeleteBranchTransferReturnsStock(t *testing.T) {
	ctx := setupEngineTest(t)

	supplier := seedSupplier(t, ctx)
	filter := seedProduct(t, ctx, "OIL-FLT-07")
	receiveStock(t, ctx, supplier.ID, filter.ID, 20, "30")

	branch, err := models.CreateBranch(ctx, &models.NewBranch{Code: "BR-01", Name: "Dammam Branch"})
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if _, err := workflow.SetBranchProductPrice(ctx, &models.NewBranchProductPrice{
		BranchId:      branch.ID,
		ProductId:     filter.ID,
		TransferPrice: mustDecimal(t, "35"),
		RetailPrice:   mustDecimal(t, "42"),
	}); err != nil {
		t.Fatalf("SetBranchProductPrice: %v", err)
	}

	transfer, err := workflow.TransferToBranch(ctx, &models.NewBranchTransfer{
		BranchId: branch.ID,
		Items:    []models.NewBranchTransferItem{{ProductId: filter.ID, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("TransferToBranch: %v", err)
	}

	if err := workflow.DeleteBranchTransfer(ctx, transfer.ID); err != nil {
		t.Fatalf("DeleteBranchTransfer: %v", err)
	}
	stock, err := models.GetBranchInventory(ctx, branch.ID, filter.ID)
	if err != nil {
		t.Fatalf("GetBranchInventory: %v", err)
	}
	if stock.Quantity != 0 {
		t.Fatalf("branch quantity after delete = %d, want 0", stock.Quantity)
	}
	main, err := models.GetInventoryItem(ctx, filter.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if main.Quantity != 20 {
		t.Fatalf("main quantity after delete = %d, want 20 (restored)", main.Quantity)
	}

	// A transfer whose stock the branch already sold cannot be reversed.
	transfer, err = workflow.TransferToBranch(ctx, &models.NewBranchTransfer{
		BranchId: branch.ID,
		Items:    []models.NewBranchTransferItem{{ProductId: filter.ID, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("TransferToBranch: %v", err)
	}
	if _, err := workflow.CreateSaleInvoice(ctx, &models.NewSaleInvoice{
		SaleType:      models.SaleTypeBranch,
		BranchId:      &branch.ID,
		PaymentMethod: models.PaymentMethodCash,
		Items: []models.NewSaleInvoiceItem{
			{ProductId: filter.ID, Quantity: 2, UnitPrice: mustDecimal(t, "42")},
		},
	}); err != nil {
		t.Fatalf("branch sale: %v", err)
	}

	err = workflow.DeleteBranchTransfer(ctx, transfer.ID)
	var insufficient *models.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	stock, err = models.GetBranchInventory(ctx, branch.ID, filter.ID)
	if err != nil {
		t.Fatalf("GetBranchInventory: %v", err)
	}
	if stock.Quantity != 8 {
		t.Fatalf("branch quantity after failed delete = %d, want 8", stock.Quantity)
	}
	main, err = models.GetInventoryItem(ctx, filter.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if main.Quantity != 10 {
		t.Fatalf("main quantity after failed delete = %d, want 10", main.Quantity)
	}
}

func TestBranchOversellReportedBeforePriceCheck(t *testing.T) {
	ctx := setupEngineTest(t)

	supplier := seedSupplier(t, ctx)
	filter := seedProduct(t, ctx, "OIL-FLT-07")
	receiveStock(t, ctx, supplier.ID, filter.ID, 20, "30")

	branch, err := models.CreateBranch(ctx, &models.NewBranch{Code: "BR-01", Name: "Dammam Branch"})
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if _, err := workflow.SetBranchProductPrice(ctx, &models.NewBranchProductPrice{
		BranchId:      branch.ID,
		ProductId:     filter.ID,
		TransferPrice: mustDecimal(t, "35"),
		RetailPrice:   mustDecimal(t, "42"),
	}); err != nil {
		t.Fatalf("SetBranchProductPrice: %v", err)
	}
	if _, err := workflow.TransferToBranch(ctx, &models.NewBranchTransfer{
		BranchId: branch.ID,
		Items:    []models.NewBranchTransferItem{{ProductId: filter.ID, Quantity: 10}},
	}); err != nil {
		t.Fatalf("TransferToBranch: %v", err)
	}

	// The line both oversells and misprices. Stock is checked first, so the
	// caller sees the shortage rather than the price rejection.
	_, err = workflow.CreateSaleInvoice(ctx, &models.NewSaleInvoice{
		SaleType:      models.SaleTypeBranch,
		BranchId:      &branch.ID,
		PaymentMethod: models.PaymentMethodCash,
		Items: []models.NewSaleInvoiceItem{
			{ProductId: filter.ID, Quantity: 12, UnitPrice: mustDecimal(t, "41")},
		},
	})
	var insufficient *models.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if insufficient.Requested != 12 || insufficient.Available != 10 {
		t.Fatalf("insufficient = %+v, want requested 12 available 10", insufficient)
	}
}

func TestConsecutiveTransfersReleaseAdvisoryLock(t *testing.T) {
	ctx := setupEngineTest(t)

	supplier := seedSupplier(t, ctx)
	filter := seedProduct(t, ctx, "OIL-FLT-07")
	receiveStock(t, ctx, supplier.ID, filter.ID, 20, "30")

	branch, err := models.CreateBranch(ctx, &models.NewBranch{Code: "BR-01", Name: "Dammam Branch"})
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if _, err := workflow.SetBranchProductPrice(ctx, &models.NewBranchProductPrice{
		BranchId:      branch.ID,
		ProductId:     filter.ID,
		TransferPrice: mustDecimal(t, "35"),
		RetailPrice:   mustDecimal(t, "42"),
	}); err != nil {
		t.Fatalf("SetBranchProductPrice: %v", err)
	}

	// No redis in this environment, so posting takes the MySQL advisory
	// lock. A lock left behind on the wrong pooled connection makes the
	// second transfer block for the full 30s timeout and fail.
	first, err := workflow.TransferToBranch(ctx, &models.NewBranchTransfer{
		BranchId: branch.ID,
		Items:    []models.NewBranchTransferItem{{ProductId: filter.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("first TransferToBranch: %v", err)
	}
	start := time.Now()
	second, err := workflow.TransferToBranch(ctx, &models.NewBranchTransfer{
		BranchId: branch.ID,
		Items:    []models.NewBranchTransferItem{{ProductId: filter.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("second TransferToBranch: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("second transfer took %s, lock was not released", elapsed)
	}
	if second.TransferNumber == first.TransferNumber {
		t.Fatalf("transfer numbers collide: %q", second.TransferNumber)
	}

	stock, err := models.GetBranchInventory(ctx, branch.ID, filter.ID)
	if err != nil {
		t.Fatalf("GetBranchInventory: %v", err)
	}
	if stock.Quantity != 10 {
		t.Fatalf("branch quantity = %d, want 10 after both transfers", stock.Quantity)
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("partsflow-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=partsflow_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
