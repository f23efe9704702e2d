package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Typed business-rule errors raised by the invoice engine. Every rejection
// names the offending entity, quantity or price so callers never surface a
// bare infrastructure error. Match with errors.As.

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

type NotFoundError struct {
	Entity string
	ID     interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found (id=%v)", e.Entity, e.ID)
}

func NewNotFoundError(entity string, id interface{}) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

type DuplicateError struct {
	Entity string
	Field  string
	Value  interface{}
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with %s %v already exists", e.Entity, e.Field, e.Value)
}

func NewDuplicateError(entity, field string, value interface{}) *DuplicateError {
	return &DuplicateError{Entity: entity, Field: field, Value: value}
}

type InsufficientStockError struct {
	ProductCode string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient quantity for product %s: requested %d, available %d",
		e.ProductCode, e.Requested, e.Available)
}

type PriceMismatchError struct {
	ProductCode   string
	RequiredPrice decimal.Decimal
	OfferedPrice  decimal.Decimal
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price must be %s for product %s (got %s)",
		e.RequiredPrice.String(), e.ProductCode, e.OfferedPrice.String())
}

type InvalidStateError struct {
	Entity  string
	ID      interface{}
	State   string
	Message string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %v is %s: %s", e.Entity, e.ID, e.State, e.Message)
}
