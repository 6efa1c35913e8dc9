package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", ErrValidation, KindValidation},
		{"validation struct", NewValidationError("email", "invalid format"), KindValidation},
		{"duplicate", fmt.Errorf("register: %w", ErrDuplicateUser), KindDuplicateUser},
		{"credentials", ErrInvalidCredentials, KindInvalidCredentials},
		{"unauthenticated", ErrUnauthenticated, KindUnauthenticated},
		{"invalid token", ErrInvalidToken, KindInvalidToken},
		{"not found", ErrNotFound, KindNotFound},
		{"empty cart", ErrEmptyCart, KindEmptyCart},
		{"storage", StorageError("insert purchase", errors.New("conn reset")), KindStorage},
		{"storage wrapping not found", StorageError("remove cart item", ErrNotFound), KindStorage},
		{"unknown", errors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("price", "must not be negative")
	assert.Equal(t, "validation error: price: must not be negative", err.Error())
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))

	noField := NewValidationError("", "empty body")
	assert.Equal(t, "validation error: empty body", noField.Error())
}

func TestStorageError_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := StorageError("list cart", cause)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "list cart")
}
