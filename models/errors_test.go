package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestInsufficientStockErrorMessage(t *testing.T) {
	err := &InsufficientStockError{ProductCode: "BRK-PAD-01", Requested: 8, Available: 5}
	want := "insufficient quantity for product BRK-PAD-01: requested 8, available 5"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestTypedErrorsSurviveWrapping(t *testing.T) {
	base := NewNotFoundError("product", 17)
	wrapped := fmt.Errorf("posting sale invoice: %w", base)

	var notFound *NotFoundError
	if !errors.As(wrapped, &notFound) {
		t.Fatal("NotFoundError not recoverable from wrapped error")
	}
	if notFound.Entity != "product" {
		t.Fatalf("entity = %q, want product", notFound.Entity)
	}

	var dup *DuplicateError
	if errors.As(wrapped, &dup) {
		t.Fatal("DuplicateError should not match a NotFoundError")
	}
}

func TestDuplicateErrorMessage(t *testing.T) {
	err := NewDuplicateError("purchase invoice", "invoice_number", "PI-2026-0042")
	want := "purchase invoice with invoice_number PI-2026-0042 already exists"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestFormatDocumentNumber(t *testing.T) {
	if got := FormatDocumentNumber("SI", 42); got != "SI-000042" {
		t.Fatalf("FormatDocumentNumber = %q, want SI-000042", got)
	}
	if got := FormatDocumentNumber("TR", 1000000); got != "TR-1000000" {
		t.Fatalf("FormatDocumentNumber = %q, want TR-1000000", got)
	}
}
