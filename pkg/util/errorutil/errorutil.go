package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes rendered in the response envelope.
const (
	CodeValidation            = "VALIDATION_FAILED"
	CodeConflict              = "CONFLICT"
	CodeAuthentication        = "AUTHENTICATION_FAILED"
	CodeTokenExpired          = "TOKEN_EXPIRED"
	CodeTokenInvalidSignature = "TOKEN_INVALID_SIGNATURE"
	CodeTokenMalformed        = "TOKEN_MALFORMED"
	CodeForbidden             = "FORBIDDEN"
	CodeNotFound              = "NOT_FOUND"
	CodeMethodNotAllowed      = "METHOD_NOT_ALLOWED"
	CodeUpstream              = "UPSTREAM_ERROR"
	CodeUpstreamTimeout       = "UPSTREAM_TIMEOUT"
	CodeStoreTimeout          = "STORE_TIMEOUT"
	CodeInternal              = "INTERNAL_ERROR"
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

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeAuthentication, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewStoreTimeout(err error) error {
	return &DomainError{
		Code:       CodeStoreTimeout,
		Message:    "store did not respond in time",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// WithStatus re-targets err to the given HTTP status while keeping its code
// and message. The original error stays reachable through errors.Is/As.
func WithStatus(err error, status int) error {
	if err == nil {
		return nil
	}
	de := ToDomainError(err)
	return &DomainError{
		Code:       de.Code,
		Message:    de.Message,
		HTTPStatus: status,
		Details:    de.Details,
		Err:        err,
	}
}

// CodeOf returns the envelope code err maps to, or "" for nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Code
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
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return NewDomainError(codeForStatus(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
	}
	return NewInternalError(err).(*DomainError)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeAuthentication
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusMethodNotAllowed:
		return CodeMethodNotAllowed
	case http.StatusConflict:
		return CodeConflict
	}
	if status >= 500 {
		return CodeInternal
	}
	return CodeValidation
}
