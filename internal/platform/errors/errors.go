package errors

import (
	stderrors "errors"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs)
	Metadata map[string]string // Additional context for templating
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata for i18n templating.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// As extracts the first domain error in err's chain.
func As(err error) (*Error, bool) {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// IsValidation reports whether err carries a validation code.
func IsValidation(err error) bool {
	domainErr, ok := As(err)
	return ok && domainErr.Code.Kind() == KindValidation
}

// IsNotFound reports whether err carries a not-found code.
func IsNotFound(err error) bool {
	domainErr, ok := As(err)
	return ok && domainErr.Code.Kind() == KindNotFound
}
