package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Invalid amount", http.StatusBadRequest)
}

func ErrInvalidAddress() *AppError {
	return New("VAL_002", "Malformed recipient address", http.StatusBadRequest)
}

func ErrInsufficientFunds() *AppError {
	return New("VAL_003", "Insufficient available balance", http.StatusPaymentRequired)
}

func ErrAmountMismatch() *AppError {
	return New("VAL_004", "Amount does not match the payment link's fixed amount", http.StatusBadRequest)
}

// Validation returns a VAL_005 error with a caller-supplied message.
func Validation(message string) *AppError {
	return New("VAL_005", message, http.StatusBadRequest)
}

// ---- Payment request decoding (DEC) ----

func ErrMalformedPayload() *AppError {
	return New("DEC_001", "Malformed payment request payload", http.StatusBadRequest)
}

func ErrDecodeInvalidAmount() *AppError {
	return New("DEC_002", "Payment request amount is not a valid positive decimal", http.StatusBadRequest)
}

// ---- Ledger (LED) ----

func ErrLedgerInsufficientFunds() *AppError {
	return New("LED_001", "Transaction would drive balance negative", http.StatusConflict)
}

func ErrLedgerNotPending() *AppError {
	return New("LED_002", "Transaction is not in the pending window", http.StatusConflict)
}

// ---- Payment link registry (LNK) ----

func ErrDuplicateLinkName() *AppError {
	return New("LNK_001", "A payment link with this name already exists", http.StatusConflict)
}

func ErrLinkInactive() *AppError {
	return New("LNK_002", "Payment link is not active", http.StatusUnprocessableEntity)
}

func ErrNotFound(entity string) *AppError {
	return New("LNK_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Transfer state machine (TRF) ----

func ErrConcurrentTransferInProgress() *AppError {
	return New("TRF_001", "Another transfer is already in flight for this wallet", http.StatusConflict)
}

func ErrTransferCancelled() *AppError {
	return New("TRF_002", "Transfer was cancelled", http.StatusConflict)
}

func ErrSignerRejected(err error) *AppError {
	return Wrap("TRF_003", "Signer rejected or timed out", http.StatusBadGateway, err)
}

func ErrSubmissionFailed(err error) *AppError {
	return Wrap("TRF_004", "Settlement submission failed", http.StatusBadGateway, err)
}

func ErrIllegalTransition(from, to string) *AppError {
	return New("TRF_005", fmt.Sprintf("illegal transfer transition %s -> %s", from, to), http.StatusInternalServerError)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrMerchantSuspended() *AppError {
	return New("AUTH_004", "Merchant account is suspended", http.StatusForbidden)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
