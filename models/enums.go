package models

// Payment terms of a purchase invoice.
type PaymentType string

const (
	PaymentTypeCash   PaymentType = "CASH"
	PaymentTypeCredit PaymentType = "CREDIT"
)

func (t PaymentType) IsValid() bool {
	return t == PaymentTypeCash || t == PaymentTypeCredit
}

type PurchaseInvoiceStatus string

const (
	PurchaseInvoiceStatusPending PurchaseInvoiceStatus = "PENDING"
	PurchaseInvoiceStatusPaid    PurchaseInvoiceStatus = "PAID"
)

type SaleType string

const (
	SaleTypeRegular SaleType = "REGULAR"
	SaleTypeBranch  SaleType = "BRANCH"
)

func (t SaleType) IsValid() bool {
	return t == SaleTypeRegular || t == SaleTypeBranch
}

// How a sale was settled. Credit methods feed the customer running balance.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCredit   PaymentMethod = "CREDIT"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodCredit:
		return true
	}
	return false
}

// IsCredit reports whether the method leaves an open amount on the customer.
func (m PaymentMethod) IsCredit() bool {
	return m == PaymentMethodCredit
}

// Document type of a stock movement's originating record.
type StockReferenceType string

const (
	StockReferencePurchaseInvoice StockReferenceType = "PI"
	StockReferenceSaleInvoice     StockReferenceType = "SI"
	StockReferenceBranchTransfer  StockReferenceType = "BT"
)

type UserRole string

const (
	UserRoleAdmin UserRole = "Admin"
	UserRoleStaff UserRole = "Staff"
)
