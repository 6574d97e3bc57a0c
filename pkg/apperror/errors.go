package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error for propagation policy: network and timeout errors
// surface as transient toasts, authentication errors force a device logout,
// validation errors stay at the form layer, persistence errors are surfaced
// as warnings rather than swallowed.
type Kind int

const (
	KindGeneric Kind = iota
	KindNetwork
	KindTimeout
	KindAuthentication
	KindValidation
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindAuthentication:
		return "authentication"
	case KindValidation:
		return "validation"
	case KindPersistence:
		return "persistence"
	default:
		return "generic"
	}
}

// AppError represents an application error with an HTTP-like status code.
// Field and Value mirror the remote API's error envelope so gateway errors
// round-trip without loss.
type AppError struct {
	Kind    Kind         `json:"-"`
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Field   string       `json:"field,omitempty"`
	Value   string       `json:"value,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Message: "Resource not found"}
	ErrUnauthorized   = &AppError{Kind: KindAuthentication, Code: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrForbidden      = &AppError{Code: http.StatusForbidden, Message: "Forbidden"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrConflict       = &AppError{Code: http.StatusConflict, Message: "Resource already exists"}
	ErrInvalidPIN     = &AppError{Kind: KindAuthentication, Code: http.StatusUnauthorized, Message: "Invalid PIN"}
	ErrTokenExpired   = &AppError{Kind: KindAuthentication, Code: http.StatusUnauthorized, Message: "Token has expired"}
	ErrInvalidToken   = &AppError{Kind: KindAuthentication, Code: http.StatusUnauthorized, Message: "Invalid token"}
	ErrOffline        = &AppError{Kind: KindNetwork, Code: http.StatusServiceUnavailable, Message: "Please connect to the internet"}
	ErrRequestTimeout = &AppError{Kind: KindTimeout, Code: http.StatusRequestTimeout, Message: "Request timed out"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// NewNetworkError wraps a connectivity failure. The operation is aborted and
// no retry is scheduled; the user must re-trigger.
func NewNetworkError(message string) *AppError {
	if message == "" {
		message = ErrOffline.Message
	}
	return &AppError{
		Kind:    KindNetwork,
		Code:    http.StatusServiceUnavailable,
		Message: message,
	}
}

// NewAuthenticationError signals the server rejected the session. The caller
// layer reacts with a forced device logout.
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Kind:    KindAuthentication,
		Code:    http.StatusUnauthorized,
		Message: message,
	}
}

// NewPersistenceError wraps a local database statement failure.
func NewPersistenceError(op string, err error) *AppError {
	return &AppError{
		Kind:    KindPersistence,
		Code:    http.StatusInternalServerError,
		Message: op + ": " + err.Error(),
	}
}

// NewRemoteError builds an error from the remote API's error envelope.
func NewRemoteError(code int, message, field, value string) *AppError {
	e := &AppError{
		Code:    code,
		Message: message,
		Field:   field,
		Value:   value,
	}
	switch code {
	case http.StatusRequestTimeout:
		e.Kind = KindTimeout
	case http.StatusUnauthorized:
		e.Kind = KindAuthentication
	}
	return e
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	}
}
