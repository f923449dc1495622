package drive

import "errors"

// DomainError represents a business error from hierarchy-manager
// operations, as opposed to infrastructure errors (network failure, disk
// error), which are wrapped under CodeStorage.
//
// The HTTP adapter translates the Code to a status code; Message is the
// only text ever echoed to a client, so store-specific causes stay
// internal (they remain reachable through Unwrap for logging).
type DomainError struct {
	// Code is the error category
	Code Code

	// Message is a stable, human-readable description safe for clients
	Message string

	// cause is the wrapped internal error, if any
	cause error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the internal cause for errors.Is/As and logging.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Code represents the category of a domain error.
type Code int

const (
	// CodeValidation indicates malformed or missing input. Maps to a 4xx
	// client fault and is never retried automatically.
	CodeValidation Code = iota

	// CodeNotFound indicates the entity is absent or access was denied.
	// The two are deliberately indistinguishable so private ids do not
	// leak existence.
	CodeNotFound

	// CodeInvalidOperation indicates the operation is not meaningful for
	// the entity's kind, e.g. reading folder content.
	CodeInvalidOperation

	// CodeStorage indicates an underlying store failure. Surfaced as a
	// 5xx, logged, never silently swallowed.
	CodeStorage
)

// errNotFound builds the uniform not-found error.
func errNotFound() *DomainError {
	return &DomainError{Code: CodeNotFound, Message: "Not found"}
}

// errValidation builds a validation error with a client-facing message.
func errValidation(message string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message}
}

// errInvalidOperation builds an invalid-operation error.
func errInvalidOperation(message string) *DomainError {
	return &DomainError{Code: CodeInvalidOperation, Message: message}
}

// errStorage wraps an infrastructure failure. The cause is retained for
// logs but never shown to clients.
func errStorage(cause error) *DomainError {
	return &DomainError{Code: CodeStorage, Message: "Storage failure", cause: cause}
}

// CodeOf extracts the category from an error returned by this package.
// ok is false for errors that did not originate here.
func CodeOf(err error) (Code, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code, true
	}
	return 0, false
}
