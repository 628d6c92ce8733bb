// Package errors provides custom error types for the stratalpha analytics
// service. All engine- and service-layer errors use AppError so that callers
// (CLI, HTTP handlers, run-history logging) see a stable error code and a
// precise reason string without leaking internal details.
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

// Engine errors. ErrValidation covers malformed configuration: discount-rate
// weights not summing to one, non-positive shares outstanding, duplicate
// graph edges, bad ranges. ErrValuation covers computations that are
// mathematically undefined for the given inputs (WACC at or below terminal
// growth). ErrDataInsufficient covers return windows too short for a
// meaningful statistic.
var (
	ErrValidation       = &AppError{Code: "VALIDATION_ERROR", Message: "Invalid engine configuration", StatusCode: http.StatusBadRequest}
	ErrValuation        = &AppError{Code: "VALUATION_ERROR", Message: "Valuation is undefined for the given inputs", StatusCode: http.StatusUnprocessableEntity}
	ErrDataInsufficient = &AppError{Code: "DATA_INSUFFICIENT", Message: "Not enough observations for a meaningful statistic", StatusCode: http.StatusUnprocessableEntity}
)

// Data and persistence errors.
var (
	ErrRunNotFound        = &AppError{Code: "RUN_NOT_FOUND", Message: "Analysis run not found", StatusCode: http.StatusNotFound}
	ErrDataUnavailable    = &AppError{Code: "DATA_UNAVAILABLE", Message: "Market data source unavailable", StatusCode: http.StatusBadGateway}
	ErrTickerNotSupported = &AppError{Code: "TICKER_NOT_SUPPORTED", Message: "Ticker is not supported by the data source", StatusCode: http.StatusNotFound}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)
