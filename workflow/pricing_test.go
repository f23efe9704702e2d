package workflow

import (
	"errors"
	"testing"

	"github.com/partsflow/spareparts_backend/models"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestResolveUnitPriceRegularUsesClientPrice(t *testing.T) {
	base := dec("30")
	product := &models.Product{Code: "BRK-PAD-01", UnitPrice: &base}

	got, err := ResolveUnitPrice(models.SaleTypeRegular, dec("25.50"), product, dec("18"), nil)
	if err != nil {
		t.Fatalf("ResolveUnitPrice: %v", err)
	}
	if !got.Equal(dec("25.50")) {
		t.Fatalf("unit price = %s, want 25.50", got)
	}
}

func TestResolveUnitPriceRegularFallsBackToProductPrice(t *testing.T) {
	base := dec("30")
	product := &models.Product{Code: "BRK-PAD-01", UnitPrice: &base}

	got, err := ResolveUnitPrice(models.SaleTypeRegular, decimal.Zero, product, dec("18"), nil)
	if err != nil {
		t.Fatalf("ResolveUnitPrice: %v", err)
	}
	if !got.Equal(dec("30")) {
		t.Fatalf("unit price = %s, want 30", got)
	}
}

func TestResolveUnitPriceRegularFallsBackToAverageCost(t *testing.T) {
	product := &models.Product{Code: "BRK-PAD-01"}

	got, err := ResolveUnitPrice(models.SaleTypeRegular, decimal.Zero, product, dec("18"), nil)
	if err != nil {
		t.Fatalf("ResolveUnitPrice: %v", err)
	}
	if !got.Equal(dec("18")) {
		t.Fatalf("unit price = %s, want 18", got)
	}
}

func TestResolveUnitPriceBranchEnforcesStampedPrice(t *testing.T) {
	product := &models.Product{Code: "OIL-FLT-07"}
	stock := &models.BranchInventory{BranchSalePrice: dec("42")}

	got, err := ResolveUnitPrice(models.SaleTypeBranch, dec("42"), product, decimal.Zero, stock)
	if err != nil {
		t.Fatalf("ResolveUnitPrice: %v", err)
	}
	if !got.Equal(dec("42")) {
		t.Fatalf("unit price = %s, want 42", got)
	}

	// A zero client price accepts the mandated price.
	got, err = ResolveUnitPrice(models.SaleTypeBranch, decimal.Zero, product, decimal.Zero, stock)
	if err != nil {
		t.Fatalf("ResolveUnitPrice: %v", err)
	}
	if !got.Equal(dec("42")) {
		t.Fatalf("unit price = %s, want 42", got)
	}
}

func TestResolveUnitPriceBranchRejectsMismatch(t *testing.T) {
	product := &models.Product{Code: "OIL-FLT-07"}
	stock := &models.BranchInventory{BranchSalePrice: dec("42")}

	_, err := ResolveUnitPrice(models.SaleTypeBranch, dec("41"), product, decimal.Zero, stock)
	var mismatch *models.PriceMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want PriceMismatchError", err)
	}
	if !mismatch.RequiredPrice.Equal(dec("42")) || !mismatch.OfferedPrice.Equal(dec("41")) {
		t.Fatalf("mismatch = %+v, want required 42 offered 41", mismatch)
	}
	want := "price must be 42 for product OIL-FLT-07 (got 41)"
	if mismatch.Error() != want {
		t.Fatalf("message = %q, want %q", mismatch.Error(), want)
	}
}

func TestResolveUnitPriceBranchTrailingZerosStillMatch(t *testing.T) {
	product := &models.Product{Code: "OIL-FLT-07"}
	stock := &models.BranchInventory{BranchSalePrice: dec("42.00")}

	got, err := ResolveUnitPrice(models.SaleTypeBranch, dec("42"), product, decimal.Zero, stock)
	if err != nil {
		t.Fatalf("ResolveUnitPrice: %v", err)
	}
	if !got.Equal(dec("42")) {
		t.Fatalf("unit price = %s, want 42", got)
	}
}

func TestResolveStockSource(t *testing.T) {
	if _, err := resolveStockSource(models.SaleTypeBranch, nil); err == nil {
		t.Fatal("expected error for branch sale without branch_id")
	}
	branch := 3
	src, err := resolveStockSource(models.SaleTypeBranch, &branch)
	if err != nil {
		t.Fatalf("resolveStockSource: %v", err)
	}
	if got := src.branchId(); got == nil || *got != 3 {
		t.Fatalf("branchId = %v, want 3", got)
	}
	src, err = resolveStockSource(models.SaleTypeRegular, nil)
	if err != nil {
		t.Fatalf("resolveStockSource: %v", err)
	}
	if src.branchId() != nil {
		t.Fatal("regular source should have no branch id")
	}
}
