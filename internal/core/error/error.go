package errx

import (
	"errors"
	"fmt"
)

// Sentinel errors for the order-capture taxonomy. Adapters convert every
// external failure into one of these before it reaches the dialog engine,
// so the transport boundary always gets a well-formed reply.
var (
	// ErrInput marks an unreadable inbound message (empty text or customer id).
	ErrInput = errors.New("unreadable input")
	// ErrValidation marks a field value rejected by its schema validator.
	ErrValidation = errors.New("field validation failed")
	// ErrMalformedPayload marks extractor output with no parseable payload.
	ErrMalformedPayload = errors.New("malformed extractor payload")
	// ErrTransport marks an extractor call that failed at the transport level
	// (timeout, network error, non-success status).
	ErrTransport = errors.New("extractor transport failure")
	// ErrUnknownItem marks a finalize-time catalog miss on the item key.
	ErrUnknownItem = errors.New("unknown catalog item")
	// ErrUnknownSize marks a finalize-time catalog miss on the size key.
	ErrUnknownSize = errors.New("unknown catalog size")
	// ErrCatalogEmpty marks an empty catalog; new orders are refused.
	ErrCatalogEmpty = errors.New("catalog is empty")
	// ErrLedger marks a failed append to the order ledger.
	ErrLedger = errors.New("ledger append failed")
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
