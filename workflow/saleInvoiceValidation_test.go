package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/partsflow/spareparts_backend/models"
)

// Update validation mirrors create validation. These run without a database:
// every rejection here must fire before the posting transaction starts.
func TestUpdateSaleInvoiceRejectsBadInput(t *testing.T) {
	branchId := 1
	customerId := 7

	tests := []struct {
		name  string
		input *models.NewSaleInvoice
		field string
	}{
		{
			name: "unknown sale type",
			input: &models.NewSaleInvoice{
				SaleType:      models.SaleType("WHOLESALE"),
				PaymentMethod: models.PaymentMethodCash,
				Items:         []models.NewSaleInvoiceItem{{ProductId: 1, Quantity: 1, UnitPrice: dec("10")}},
			},
			field: "sale_type",
		},
		{
			name: "unknown payment method",
			input: &models.NewSaleInvoice{
				SaleType:      models.SaleTypeRegular,
				PaymentMethod: models.PaymentMethod("BARTER"),
				Items:         []models.NewSaleInvoiceItem{{ProductId: 1, Quantity: 1, UnitPrice: dec("10")}},
			},
			field: "payment_method",
		},
		{
			name: "zero quantity line",
			input: &models.NewSaleInvoice{
				SaleType:      models.SaleTypeRegular,
				PaymentMethod: models.PaymentMethodCash,
				Items:         []models.NewSaleInvoiceItem{{ProductId: 1, Quantity: 0, UnitPrice: dec("10")}},
			},
			field: "input",
		},
		{
			name: "negative unit price",
			input: &models.NewSaleInvoice{
				SaleType:      models.SaleTypeRegular,
				PaymentMethod: models.PaymentMethodCash,
				Items:         []models.NewSaleInvoiceItem{{ProductId: 1, Quantity: 1, UnitPrice: dec("-1")}},
			},
			field: "unit_price",
		},
		{
			name: "negative discount",
			input: &models.NewSaleInvoice{
				SaleType:      models.SaleTypeRegular,
				PaymentMethod: models.PaymentMethodCash,
				Discount:      dec("-5"),
				Items:         []models.NewSaleInvoiceItem{{ProductId: 1, Quantity: 1, UnitPrice: dec("10")}},
			},
			field: "discount",
		},
		{
			name: "branch sale with customer",
			input: &models.NewSaleInvoice{
				SaleType:      models.SaleTypeBranch,
				BranchId:      &branchId,
				CustomerId:    &customerId,
				PaymentMethod: models.PaymentMethodCash,
				Items:         []models.NewSaleInvoiceItem{{ProductId: 1, Quantity: 1, UnitPrice: dec("10")}},
			},
			field: "customer_id",
		},
		{
			name: "regular sale with branch",
			input: &models.NewSaleInvoice{
				SaleType:      models.SaleTypeRegular,
				BranchId:      &branchId,
				PaymentMethod: models.PaymentMethodCash,
				Items:         []models.NewSaleInvoiceItem{{ProductId: 1, Quantity: 1, UnitPrice: dec("10")}},
			},
			field: "branch_id",
		},
		{
			name: "credit sale without customer",
			input: &models.NewSaleInvoice{
				SaleType:      models.SaleTypeRegular,
				PaymentMethod: models.PaymentMethodCredit,
				Items:         []models.NewSaleInvoiceItem{{ProductId: 1, Quantity: 1, UnitPrice: dec("10")}},
			},
			field: "customer_id",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := UpdateSaleInvoice(context.Background(), 1, tc.input)
			var validation *models.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if validation.Field != tc.field {
				t.Fatalf("field = %q, want %q", validation.Field, tc.field)
			}
		})
	}
}
