package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError is a client-fixable input problem (HTTP 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing resource (HTTP 404).
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	if e.ID > 0 {
		return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func NewNotFoundError(resource string, id int) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// InsufficientStockError is the business-rule rejection for stock going
// negative (HTTP 409). The message must name the drug and the shortfall so
// an operator can act on it.
type InsufficientStockError struct {
	ObatId   int
	NamaObat string
	Tersedia int
	Diminta  int
}

func (e *InsufficientStockError) Error() string {
	kurang := e.Diminta - e.Tersedia
	return fmt.Sprintf("stok %s tidak mencukupi (tersedia=%d, diminta=%d, kurang=%d)",
		e.NamaObat, e.Tersedia, e.Diminta, kurang)
}

// ConflictError covers unique-constraint violations such as duplicate
// invoice numbers (HTTP 409).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflictError(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFoundError(err error) bool {
	if errors.Is(err, ErrorRecordNotFound) {
		return true
	}
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsInsufficientStockError(err error) bool {
	var is *InsufficientStockError
	return errors.As(err, &is)
}

func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
