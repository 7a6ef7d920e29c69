package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType classifies an AppError and picks its HTTP status
type ErrorType string

const (
	// Caller errors
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeRateLimit    ErrorType = "RATE_LIMIT"

	// Server errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"

	// Transport errors, raised when the event store cannot be reached
	ErrorTypeDatabase ErrorType = "DATABASE"
	ErrorTypeNetwork  ErrorType = "NETWORK"
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:   http.StatusBadRequest,
	ErrorTypeNotFound:     http.StatusNotFound,
	ErrorTypeConflict:     http.StatusConflict,
	ErrorTypeUnauthorized: http.StatusUnauthorized,
	ErrorTypeRateLimit:    http.StatusTooManyRequests,
	ErrorTypeInternal:     http.StatusInternalServerError,
	ErrorTypeUnavailable:  http.StatusServiceUnavailable,
	ErrorTypeDatabase:     http.StatusInternalServerError,
	ErrorTypeNetwork:      http.StatusBadGateway,
	ErrorTypeExternal:     http.StatusBadGateway,
}

// AppError is the error type shared by every layer. Handlers turn it into
// an ErrorResponse; the planner uses its Type to tell transport failures
// from rejected input.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func newAppError(t ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		Cause:      cause,
		HTTPStatus: statusByType[t],
		StackTrace: captureStackTrace(),
	}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches structured details, e.g. per-field validation messages
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause records the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// frames above the code that constructed the error
const stackSkip = 4

func captureStackTrace() string {
	var pcs [32]uintptr
	n := runtime.Callers(stackSkip, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return sb.String()
}

// NewValidationError reports rejected input
func NewValidationError(message string) *AppError {
	return newAppError(ErrorTypeValidation, message, nil)
}

// NewNotFoundError reports a missing resource, e.g. "event e1"
func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrorTypeNotFound, resource+" not found", nil)
}

// NewConflictError reports a state clash such as a duplicate edge
func NewConflictError(message string) *AppError {
	return newAppError(ErrorTypeConflict, message, nil)
}

// NewUnauthorizedError reports a missing or rejected token
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newAppError(ErrorTypeUnauthorized, message, nil)
}

// NewInternalError reports a server fault
func NewInternalError(message string) *AppError {
	return newAppError(ErrorTypeInternal, message, nil)
}

// NewRateLimitError reports a throttled client
func NewRateLimitError(limit int, window string) *AppError {
	return newAppError(ErrorTypeRateLimit,
		fmt.Sprintf("rate limit exceeded: %d requests per %s", limit, window), nil)
}

// NewUnavailableError reports a dependency that refuses calls, e.g. an open breaker
func NewUnavailableError(service string) *AppError {
	return newAppError(ErrorTypeUnavailable, fmt.Sprintf("service '%s' is unavailable", service), nil)
}

// NewDatabaseError wraps a storage failure
func NewDatabaseError(operation string, err error) *AppError {
	return newAppError(ErrorTypeDatabase, fmt.Sprintf("database operation '%s' failed", operation), err)
}

// NewNetworkError wraps a failed remote call
func NewNetworkError(message string, err error) *AppError {
	return newAppError(ErrorTypeNetwork, message, err)
}

// NewExternalError wraps an unexpected answer from a remote service
func NewExternalError(service string, err error) *AppError {
	return newAppError(ErrorTypeExternal, fmt.Sprintf("external service '%s' error", service), err)
}

// GetAppError returns the first AppError in err's chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsAppError reports whether err's chain holds an AppError
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// IsType reports whether err's chain holds an AppError of type t
func IsType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsNotFound reports a NOT_FOUND error
func IsNotFound(err error) bool { return IsType(err, ErrorTypeNotFound) }

// IsValidation reports a VALIDATION error
func IsValidation(err error) bool { return IsType(err, ErrorTypeValidation) }

// IsConflict reports a CONFLICT error
func IsConflict(err error) bool { return IsType(err, ErrorTypeConflict) }

// IsUnauthorized reports an UNAUTHORIZED error
func IsUnauthorized(err error) bool { return IsType(err, ErrorTypeUnauthorized) }

// IsTransport reports whether the error came from the network, the store or
// an external service rather than from the caller's input
func IsTransport(err error) bool {
	appErr := GetAppError(err)
	if appErr == nil {
		return false
	}
	switch appErr.Type {
	case ErrorTypeNetwork, ErrorTypeExternal, ErrorTypeDatabase, ErrorTypeUnavailable:
		return true
	}
	return false
}

// typeForStatus maps a bare HTTP status back to an ErrorType
func typeForStatus(status int) ErrorType {
	switch status {
	case http.StatusBadRequest:
		return ErrorTypeValidation
	case http.StatusUnauthorized:
		return ErrorTypeUnauthorized
	case http.StatusNotFound:
		return ErrorTypeNotFound
	case http.StatusConflict:
		return ErrorTypeConflict
	case http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case http.StatusServiceUnavailable:
		return ErrorTypeUnavailable
	case http.StatusBadGateway:
		return ErrorTypeExternal
	default:
		return ErrorTypeInternal
	}
}
