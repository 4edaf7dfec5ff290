package errors

import (
	"context"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// ErrorCode represents a specific error type surfaced to clients.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the requested resource does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeServiceUnavailable indicates a dependency is not available.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeLLMUnavailable indicates the LLM service is not available.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeNoOutput indicates the model produced no text.
	ErrCodeNoOutput ErrorCode = "NO_OUTPUT"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// AppError represents a structured error carrying a client-facing code.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AppError {
	return &AppError{Code: ErrCodeInvalidArgument, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *AppError {
	return &AppError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(msg string, cause error) *AppError {
	return &AppError{Code: ErrCodeServiceUnavailable, Message: msg, Cause: cause}
}

// LLMUnavailable creates an LLM unavailable error.
func LLMUnavailable(msg string, cause error) *AppError {
	return &AppError{Code: ErrCodeLLMUnavailable, Message: msg, Cause: cause}
}

// NoOutput creates a no output error.
func NoOutput(msg string) *AppError {
	return &AppError{Code: ErrCodeNoOutput, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string, cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *AppError {
	return &AppError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string) *AppError {
	return &AppError{Code: ErrCodeTimeout, Message: msg}
}

// Wrap wraps an existing error with a code.
func Wrap(cause error, code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks whether err, or any error it wraps, carries code.
func IsCode(err error, code ErrorCode) bool {
	return GetCodeFromError(err, "") == code
}

// GetCodeFromError extracts the error code from any error.
// Context cancellation and deadlines map to their own codes; anything else
// that is not an AppError gets defaultCode.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var appErr *AppError
	if pkgerrors.As(err, &appErr) {
		return appErr.Code
	}
	if pkgerrors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	if pkgerrors.Is(err, context.Canceled) {
		return ErrCodeContextCanceled
	}
	return defaultCode
}

// HTTPStatus maps an error code to an HTTP status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeServiceUnavailable, ErrCodeLLMUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeContextCanceled:
		// nginx's "client closed request".
		return 499
	default:
		return http.StatusInternalServerError
	}
}
