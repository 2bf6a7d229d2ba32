package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the classification of an error
type ErrorType int

const (
	// ErrorTypeTransient indicates a temporary failure that can be retried
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent indicates a permanent failure that should not be retried
	ErrorTypePermanent
	// ErrorTypeTimeout indicates a timeout error
	ErrorTypeTimeout
)

// Domain error codes. Business outcomes (insufficient stock, cannot
// release/confirm) are surfaced by the use-cases as structured results;
// everything else is raised as an error carrying one of these codes.
const (
	CodeValidation              = "VALIDATION"
	CodeNotFound                = "NOT_FOUND"
	CodeProductInactive         = "PRODUCT_INACTIVE"
	CodeInsufficientStock       = "INSUFFICIENT_STOCK"
	CodeCannotRelease           = "CANNOT_RELEASE"
	CodeCannotConfirm           = "CANNOT_CONFIRM"
	CodeInvalidReservationState = "INVALID_RESERVATION_STATE"
	CodeNegativeQuantity        = "NEGATIVE_QUANTITY"
	CodeVersionConflict         = "VERSION_CONFLICT"
)

// CustomError is a custom error with classification and context
type CustomError struct {
	Type    ErrorType
	Message string
	Cause   error
	Code    string
}

// NewTransientError creates a new transient error
func NewTransientError(code, message string, cause error) *CustomError {
	return &CustomError{
		Type:    ErrorTypeTransient,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewPermanentError creates a new permanent error
func NewPermanentError(code, message string, cause error) *CustomError {
	return &CustomError{
		Type:    ErrorTypePermanent,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(code, message string) *CustomError {
	return &CustomError{
		Type:    ErrorTypeTimeout,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates an error for input rejected before the
// aggregate is touched
func NewValidationError(message string) *CustomError {
	return NewPermanentError(CodeValidation, message, nil)
}

// NewNotFoundError creates an error for an unknown resource id
func NewNotFoundError(resource, id string) *CustomError {
	return NewPermanentError(CodeNotFound, fmt.Sprintf("%s not found: %s", resource, id), nil)
}

// NewProductInactiveError creates an error for a mutation attempted on a
// deactivated product
func NewProductInactiveError(productID string) *CustomError {
	return NewPermanentError(CodeProductInactive, fmt.Sprintf("product is inactive: %s", productID), nil)
}

// NewInsufficientStockError creates the expected business failure of a
// reserve call
func NewInsufficientStockError(productID string, requested, available int64) *CustomError {
	return NewPermanentError(
		CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", productID, requested, available),
		nil,
	)
}

// NewCannotReleaseError creates an error for releasing more than is reserved
func NewCannotReleaseError(productID string, requested, reserved int64) *CustomError {
	return NewPermanentError(
		CodeCannotRelease,
		fmt.Sprintf("cannot release %d units of product %s: only %d reserved", requested, productID, reserved),
		nil,
	)
}

// NewCannotConfirmError creates an error for confirming more than is reserved
func NewCannotConfirmError(productID string, requested, reserved int64) *CustomError {
	return NewPermanentError(
		CodeCannotConfirm,
		fmt.Sprintf("cannot confirm %d units of product %s: only %d reserved", requested, productID, reserved),
		nil,
	)
}

// NewInvalidReservationStateError creates an error for a transition attempted
// on a non-active reservation
func NewInvalidReservationStateError(reservationID, status string) *CustomError {
	return NewPermanentError(
		CodeInvalidReservationState,
		fmt.Sprintf("reservation %s is %s: only active reservations can transition", reservationID, status),
		nil,
	)
}

// NewNegativeQuantityError creates an error for arithmetic that would
// produce a negative quantity
func NewNegativeQuantityError(value int64) *CustomError {
	return NewPermanentError(CodeNegativeQuantity, fmt.Sprintf("quantity cannot be negative: %d", value), nil)
}

// Error implements the error interface
func (e *CustomError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CustomError) Unwrap() error {
	return e.Cause
}

// IsTransient returns true if the error is transient
func (e *CustomError) IsTransient() bool {
	return e.Type == ErrorTypeTransient
}

// IsPermanent returns true if the error is permanent
func (e *CustomError) IsPermanent() bool {
	return e.Type == ErrorTypePermanent
}

// IsTimeout returns true if the error is a timeout
func (e *CustomError) IsTimeout() bool {
	return e.Type == ErrorTypeTimeout
}

// HasCode reports whether err carries the given domain error code
func HasCode(err error, code string) bool {
	var customErr *CustomError
	if stderrors.As(err, &customErr) {
		return customErr.Code == code
	}
	return false
}

// ClassifyError attempts to classify a regular error
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var customErr *CustomError
	if stderrors.As(err, &customErr) {
		return customErr.Type
	}

	// Default to permanent for unknown errors
	return ErrorTypePermanent
}
