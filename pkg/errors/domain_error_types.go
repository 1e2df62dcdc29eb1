package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainErrorType is the category of a documentation rule violation
type DomainErrorType string

const (
	DomainValidationError DomainErrorType = "VALIDATION_ERROR"
	DomainNotFoundError   DomainErrorType = "NOT_FOUND"
	DomainConflictError   DomainErrorType = "CONFLICT"
)

// DomainError is a documentation rule violation. Code identifies the rule
// and Is matches on Type and Code.
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		Retryable:  false,
		StatusCode: domainErrorTypeToStatusCode(errorType),
	}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// WithCause adds a cause to the error
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	e.Details[key] = value
	return e
}

// WithRetryable sets whether the error is retryable
func (e *DomainError) WithRetryable(retryable bool) *DomainError {
	e.Retryable = retryable
	return e
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

func domainErrorTypeToStatusCode(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return http.StatusBadRequest
	case DomainNotFoundError:
		return http.StatusNotFound
	case DomainConflictError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Documentation resolution errors. Match them with errors.Is; fresh
// instances built by the constructors below compare equal by Type and Code.
var (
	ErrInvalidSegmentCount = NewDomainError(
		DomainValidationError,
		"INVALID_SEGMENT_COUNT",
		"Link has an unsupported number of segments",
	)

	ErrAmbiguousLink = NewDomainError(
		DomainValidationError,
		"AMBIGUOUS_LINK",
		"Link cannot be resolved without product, manual or version context",
	)

	ErrUnknownVersion = NewDomainError(
		DomainNotFoundError,
		"UNKNOWN_VERSION",
		"The requested version is not defined for this product",
	)

	ErrUnknownProduct = NewDomainError(
		DomainNotFoundError,
		"UNKNOWN_PRODUCT",
		"The requested product does not exist",
	)

	ErrUnknownManual = NewDomainError(
		DomainNotFoundError,
		"UNKNOWN_MANUAL",
		"The requested manual does not exist for this product",
	)

	ErrVersionConflict = NewDomainError(
		DomainConflictError,
		"VERSION_CONFLICT",
		"Another page already owns one or more of these versions",
	)

	ErrPageNotFound = NewDomainError(
		DomainNotFoundError,
		"PAGE_NOT_FOUND",
		"No page resolves for this request",
	)

	ErrLockHeld = NewDomainError(
		DomainConflictError,
		"LOCK_HELD",
		"The resource is locked by another writer",
	).WithRetryable(true)
)

// NewInvalidSegmentCountError reports a link token with the wrong arity.
func NewInvalidSegmentCountError(token string, segments int) *DomainError {
	return fresh(ErrInvalidSegmentCount).
		WithDetail("token", token).
		WithDetail("segments", segments)
}

// NewAmbiguousLinkError reports a link token lacking the context it needs.
func NewAmbiguousLinkError(token, missing string) *DomainError {
	return fresh(ErrAmbiguousLink).
		WithDetail("token", token).
		WithDetail("missing", missing)
}

// NewUnknownVersionError reports a version absent from a product catalog.
func NewUnknownVersionError(product, version string) *DomainError {
	return fresh(ErrUnknownVersion).
		WithDetail("product", product).
		WithDetail("version", version)
}

// NewUnknownProductError reports a product missing from the product list.
func NewUnknownProductError(product string) *DomainError {
	return fresh(ErrUnknownProduct).
		WithDetail("product", product)
}

// NewUnknownManualError reports a manual missing from a product's manual list.
func NewUnknownManualError(product, manual string) *DomainError {
	return fresh(ErrUnknownManual).
		WithDetail("product", product).
		WithDetail("manual", manual)
}

// NewVersionConflictError carries the conflicting page and versions.
func NewVersionConflictError(conflictingTitle string, versions []string) *DomainError {
	return fresh(ErrVersionConflict).
		WithDetail("conflictingTitle", conflictingTitle).
		WithDetail("versions", versions)
}

// NewPageNotFoundError reports a request that resolves to no page.
func NewPageNotFoundError(path string) *DomainError {
	return fresh(ErrPageNotFound).
		WithDetail("path", path)
}

// NewLockHeldError reports a lock still held when the wait ran out.
func NewLockHeldError(resource string) *DomainError {
	return fresh(ErrLockHeld).WithDetail("resource", resource)
}

// fresh copies a sentinel so details never leak between failures
func fresh(sentinel *DomainError) *DomainError {
	return NewDomainError(sentinel.Type, sentinel.Code, sentinel.Message).WithRetryable(sentinel.Retryable)
}

// GetDomainError extracts a DomainError from an error chain
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}
