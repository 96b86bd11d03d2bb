package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// EmptyCartMessage is shown when checkout is attempted without items.
	EmptyCartMessage = "Your cart is empty"
)

// ErrCheckoutInProgress is returned when a checkout is submitted while another
// one is still processing for the same shopper.
var ErrCheckoutInProgress = errors.New("checkout already in progress")

// ErrCheckoutCancelled is reported by a pending checkout that was cancelled
// before it was confirmed.
var ErrCheckoutCancelled = errors.New("checkout cancelled")

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

// ValidationError reports user input that violates a field rule. Message is
// safe to show to the shopper as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation builds a ValidationError for the given field.
func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// EmptyCartError is returned when checkout is attempted with no cart entries.
type EmptyCartError struct{}

func (e *EmptyCartError) Error() string {
	return EmptyCartMessage
}

// NotFoundError reports an id that is absent from the catalog or the cart.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NotFound builds a NotFoundError for the given resource and id.
func NotFound(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsEmptyCart reports whether err carries an EmptyCartError.
func IsEmptyCart(err error) bool {
	var ee *EmptyCartError
	return errors.As(err, &ee)
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// Status maps an error chain onto the HTTP status the transport should use.
func Status(err error) int {
	var app *AppError
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsEmptyCart(err):
		return http.StatusConflict
	case IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ErrCheckoutInProgress), errors.Is(err, ErrCheckoutCancelled):
		return http.StatusConflict
	case errors.As(err, &app):
		return app.Status
	default:
		return http.StatusInternalServerError
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
