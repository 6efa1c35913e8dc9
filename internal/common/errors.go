// Package common defines the error taxonomy and shared constants used by the
// bookshelf server and its CLI client. Callers should match errors with
// errors.Is and report them to users through Kind.
package common

import (
	"errors"
	"fmt"
)

var (
	// Input errors, detected before any write.
	ErrValidation = errors.New("validation error")

	// Credential store errors.
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Auth gate errors.
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidToken    = errors.New("invalid token")

	// Ledger errors.
	ErrNotFound  = errors.New("not found")
	ErrEmptyCart = errors.New("cart is empty")

	// Infrastructure errors. Raw driver messages stay behind these.
	ErrStorage  = errors.New("storage failure")
	ErrInternal = errors.New("internal error")
)

// Error kinds as reported to clients.
const (
	KindValidation         = "validation"
	KindDuplicateUser      = "duplicate_user"
	KindInvalidCredentials = "invalid_credentials"
	KindUnauthenticated    = "unauthenticated"
	KindInvalidToken       = "invalid_token"
	KindNotFound           = "not_found"
	KindEmptyCart          = "empty_cart"
	KindStorage            = "storage"
	KindInternal           = "internal"
)

// kinds is checked in order. ErrStorage comes first so that a storage
// failure caused by an unexpected ErrNotFound is still reported as storage.
var kinds = []struct {
	err  error
	kind string
}{
	{ErrStorage, KindStorage},
	{ErrValidation, KindValidation},
	{ErrDuplicateUser, KindDuplicateUser},
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrInvalidToken, KindInvalidToken},
	{ErrNotFound, KindNotFound},
	{ErrEmptyCart, KindEmptyCart},
}

// Kind returns the stable kind string for err. Anything outside the
// taxonomy is reported as internal.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError returns an error matching ErrValidation.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError wraps a driver error as ErrStorage, keeping the cause for logs.
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
