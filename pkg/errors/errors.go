package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrInvalidAmount          = errors.New("transaction amount must be positive")
	ErrCardInactive           = errors.New("card is not active")
	ErrInsufficientLimit      = errors.New("amount exceeds available credit limit")
	ErrInvalidInstallmentPlan = errors.New("unsupported installment plan")
	ErrInvalidLimitChange     = errors.New("requested credit limit change is not allowed")
	ErrAlreadyPaid            = errors.New("installment is already paid")
	ErrAmountMismatch         = errors.New("payment amount must match installment amount")
	ErrNotFound               = errors.New("resource not found")
	ErrUnauthorized           = errors.New("caller does not own this resource")
	ErrDuplicateApplication   = errors.New("application already exists for same card type and limit")
	ErrApplicationDecided     = errors.New("application has already been decided")
	ErrDuplicateProfile       = errors.New("profile already exists for this email")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeInvalidAmount          = "INVALID_AMOUNT"
	ErrCodeCardInactive           = "CARD_INACTIVE"
	ErrCodeInsufficientLimit      = "INSUFFICIENT_CREDIT_LIMIT"
	ErrCodeInvalidInstallmentPlan = "INVALID_INSTALLMENT_PLAN"
	ErrCodeInvalidLimitChange     = "INVALID_LIMIT_CHANGE"
	ErrCodeAlreadyPaid            = "ALREADY_PAID"
	ErrCodeAmountMismatch         = "AMOUNT_MISMATCH"
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeDuplicateApplication   = "DUPLICATE_APPLICATION"
	ErrCodeApplicationDecided     = "APPLICATION_ALREADY_DECIDED"
	ErrCodeDuplicateProfile       = "DUPLICATE_PROFILE"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
	ErrCodeCacheError             = "CACHE_ERROR"
)

// Wrap common errors with business context

func WrapInvalidAmount(amount decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAmount,
		fmt.Sprintf("Transaction amount %s must be positive", amount.StringFixed(2)),
		ErrInvalidAmount,
	)
}

func WrapCardInactive(status string) *BusinessError {
	return NewBusinessError(
		ErrCodeCardInactive,
		fmt.Sprintf("Card is not active: status=%s", status),
		ErrCardInactive,
	)
}

func WrapInsufficientLimit(requested, available decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeInsufficientLimit,
		fmt.Sprintf("Amount %s exceeds available limit %s", requested.StringFixed(2), available.StringFixed(2)),
		ErrInsufficientLimit,
	)
}

func WrapInvalidInstallmentPlan(months int) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidInstallmentPlan,
		fmt.Sprintf("Installment plan of %d months is not supported", months),
		ErrInvalidInstallmentPlan,
	)
}

func WrapInvalidLimitChange(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLimitChange,
		reason,
		ErrInvalidLimitChange,
	)
}

func WrapAlreadyPaid(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyPaid,
		fmt.Sprintf("Installment %s is already paid", installmentID),
		ErrAlreadyPaid,
	)
}

func WrapAmountMismatch(expected, actual decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeAmountMismatch,
		fmt.Sprintf("Payment amount %s does not match installment amount %s", actual.StringFixed(2), expected.StringFixed(2)),
		ErrAmountMismatch,
	)
}

func WrapNotFound(resource string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("%s not found", resource),
		ErrNotFound,
	)
}

func WrapUnauthorized(resource string) *BusinessError {
	return NewBusinessError(
		ErrCodeUnauthorized,
		fmt.Sprintf("You do not own this %s", resource),
		ErrUnauthorized,
	)
}

func WrapDuplicateApplication() *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateApplication,
		"Application already exists for same card type and limit",
		ErrDuplicateApplication,
	)
}

func WrapDuplicateProfile(email string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateProfile,
		fmt.Sprintf("Profile already exists for %s", email),
		ErrDuplicateProfile,
	)
}

func WrapApplicationDecided(status string) *BusinessError {
	return NewBusinessError(
		ErrCodeApplicationDecided,
		fmt.Sprintf("Application has already been decided: %s", status),
		ErrApplicationDecided,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
