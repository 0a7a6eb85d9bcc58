package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the triage pipeline.
const (
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeCapabilityUnavailable = "CAPABILITY_UNAVAILABLE"
	CodeTemplateMissing       = "TEMPLATE_MISSING"
	CodeQualityRejected       = "QUALITY_REJECTED"
	CodeProcessTimeout        = "PROCESS_TIMEOUT"
	CodeNotFound              = "NOT_FOUND"
	CodeInternalError         = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError marks a malformed ticket. Never retried.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewCapabilityError marks the text-capability layer unavailable or
// timing out. Retried up to the orchestrator's attempt cap.
func NewCapabilityError(message string, err error) error {
	return &DomainError{
		Code:       CodeCapabilityUnavailable,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewTemplateError marks a catalog misconfiguration (no usable template).
func NewTemplateError(message string, details map[string]any) error {
	return NewDomainError(CodeTemplateMissing, message, http.StatusInternalServerError, details)
}

// NewQualityError marks a drafted response below the quality gate.
func NewQualityError(message string, details map[string]any) error {
	return NewDomainError(CodeQualityRejected, message, http.StatusUnprocessableEntity, details)
}

// NewTimeoutError marks a processing deadline overrun.
func NewTimeoutError(message string, err error) error {
	return &DomainError{
		Code:       CodeProcessTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
		Err:        err,
	}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsTransient reports whether the orchestrator may retry the failure.
// Only capability unavailability and capability-level timeouts qualify;
// validation, template and quality failures are never retried.
func IsTransient(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == CodeCapabilityUnavailable
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		if de, ok := NewTimeoutError("processing deadline exceeded", err).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
