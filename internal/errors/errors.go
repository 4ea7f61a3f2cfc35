// Package errors defines the domain error taxonomy shared by services and handlers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a DomainError for propagation and HTTP mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindInsufficientFunds
	KindServiceUnavailable
	KindIntegrity
	KindDeliveryRejected
	KindUnauthorized
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindIntegrity:
		return "integrity"
	case KindDeliveryRejected:
		return "delivery_rejected"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// DomainError is the error type returned across service boundaries.
// Two DomainErrors match under errors.Is when their codes are equal.
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
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

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of base carrying cause.
func Wrap(base *DomainError, cause error) *DomainError {
	return &DomainError{
		Kind:    base.Kind,
		Code:    base.Code,
		Message: base.Message,
		Err:     cause,
	}
}

// WithMessage returns a copy of base with a more specific message.
func WithMessage(base *DomainError, format string, args ...interface{}) *DomainError {
	return &DomainError{
		Kind:    base.Kind,
		Code:    base.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

func Validation(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(code, message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: code, Message: message}
}

func Integrity(code, message string, cause error) *DomainError {
	return &DomainError{Kind: KindIntegrity, Code: code, Message: message, Err: cause}
}

// KindOf returns the Kind of the first DomainError in err's chain.
func KindOf(err error) Kind {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the caller may retry the operation later.
func IsRetryable(err error) bool {
	return KindOf(err) == KindServiceUnavailable
}

// As exposes errors.As for callers that import this package under its own name.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Is exposes errors.Is for callers that import this package under its own name.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// New exposes errors.New for callers that import this package under its own name.
func New(text string) error {
	return stderrors.New(text)
}
