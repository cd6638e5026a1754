package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	// Status is the HTTP status reported by an upstream service, 0 when not applicable
	Status int
	Err    error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeHTTP          = "HTTP_ERROR"
	ErrCodeNetwork       = "NETWORK_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodePrecondition  = "PRECONDITION_FAILED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// Error constructors

// NewValidationError is returned when a payload does not match its expected shape
func NewValidationError(msg string, err error) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
		Err:     err,
	}
}

// NewHTTPError is returned for non-2xx upstream responses
func NewHTTPError(status int, msg string) error {
	code := ErrCodeHTTP
	if status == 404 {
		code = ErrCodeNotFound
	}
	return &DomainError{
		Code:    code,
		Message: msg,
		Status:  status,
	}
}

// NewNetworkError is returned when the request never produced a response
func NewNetworkError(msg string, err error) error {
	return &DomainError{
		Code:    ErrCodeNetwork,
		Message: msg,
		Err:     err,
	}
}

// NewConfigurationError is returned when a required credential or setting is missing
func NewConfigurationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeConfiguration,
		Message: msg,
	}
}

// NewPreconditionError is returned when arguments are rejected before any side effect
func NewPreconditionError(msg string) error {
	return &DomainError{
		Code:    ErrCodePrecondition,
		Message: msg,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  404,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// Helper functions to check error types

func hasCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsHTTP checks if the error is an upstream HTTP error (404s included)
func IsHTTP(err error) bool {
	return hasCode(err, ErrCodeHTTP) || hasCode(err, ErrCodeNotFound)
}

// IsNetwork checks if the error is a transport failure
func IsNetwork(err error) bool { return hasCode(err, ErrCodeNetwork) }

// IsConfiguration checks if the error is a configuration error
func IsConfiguration(err error) bool { return hasCode(err, ErrCodeConfiguration) }

// IsPrecondition checks if the error is a precondition error
func IsPrecondition(err error) bool { return hasCode(err, ErrCodePrecondition) }

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool { return hasCode(err, ErrCodeInternal) }

// GetErrorCode extracts the error code from a domain error
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternal
}

// StatusOf returns the upstream HTTP status carried by err, or 0
func StatusOf(err error) int {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Status
	}
	return 0
}
