// Package errors provides custom error types for the ledger API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code so wrapped copies of a sentinel compare equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Too many failed login attempts, try again later", StatusCode: http.StatusTooManyRequests}
	ErrTooManyRequests    = &AppError{Code: "RATE_LIMITED", Message: "Too many requests", StatusCode: http.StatusTooManyRequests}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Account and ledger errors.
var (
	ErrAccountNotFound   = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
	ErrAccountInactive   = &AppError{Code: "ACCOUNT_INACTIVE", Message: "Account is inactive", StatusCode: http.StatusBadRequest}
	ErrInsufficientFunds = &AppError{Code: "INSUFFICIENT_FUNDS", Message: "Insufficient account balance", StatusCode: http.StatusBadRequest}
	ErrCurrencyMismatch  = &AppError{Code: "CURRENCY_MISMATCH", Message: "Accounts use different currencies", StatusCode: http.StatusBadRequest}
	ErrLedgerConsistency = &AppError{Code: "LEDGER_INCONSISTENT", Message: "Ledger state is inconsistent", StatusCode: http.StatusInternalServerError}
)

// Income and expense errors.
var (
	ErrIncomeNotFound        = &AppError{Code: "INCOME_NOT_FOUND", Message: "Income not found", StatusCode: http.StatusNotFound}
	ErrExpenseNotFound       = &AppError{Code: "EXPENSE_NOT_FOUND", Message: "Expense not found", StatusCode: http.StatusNotFound}
	ErrExpenseTargetConflict = &AppError{Code: "EXPENSE_TARGET_CONFLICT", Message: "An expense must reference exactly one of account or credit card", StatusCode: http.StatusBadRequest}
)

// Transfer errors.
var (
	ErrTransferNotFound    = &AppError{Code: "TRANSFER_NOT_FOUND", Message: "Transfer not found", StatusCode: http.StatusNotFound}
	ErrSameAccountTransfer = &AppError{Code: "SAME_ACCOUNT_TRANSFER", Message: "Cannot transfer to the same account", StatusCode: http.StatusBadRequest}
	ErrNoTransferAccount   = &AppError{Code: "NO_TRANSFER_ACCOUNT", Message: "A transfer needs at least one of its sides to be an account", StatusCode: http.StatusBadRequest}
)

// Credit card errors.
var (
	ErrCardNotFound       = &AppError{Code: "CARD_NOT_FOUND", Message: "Credit card not found", StatusCode: http.StatusNotFound}
	ErrInvalidBillingDays = &AppError{Code: "INVALID_BILLING_DAYS", Message: "Closing and due days must be between 1 and 31", StatusCode: http.StatusBadRequest}
	ErrNothingToPay       = &AppError{Code: "NOTHING_TO_PAY", Message: "The invoice has no outstanding expenses", StatusCode: http.StatusBadRequest}
	ErrCardInUse          = &AppError{Code: "CARD_IN_USE", Message: "Credit card has expenses and cannot be deleted", StatusCode: http.StatusConflict}
)

// Budget errors.
var (
	ErrBudgetNotFound = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
)
