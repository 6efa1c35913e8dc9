package api

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bookshelf/internal/common"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrNotLoggedIn = errors.New("not logged in")
	ErrRateLimited = errors.New("too many requests")
	ErrUnexpected  = errors.New("unexpected server response")
)

// Error is a non-2xx response from the API.
type Error struct {
	Status  int
	Kind    string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Message
}

var sentinelByKind = map[string]error{
	common.KindValidation:         common.ErrValidation,
	common.KindDuplicateUser:      common.ErrDuplicateUser,
	common.KindInvalidCredentials: common.ErrInvalidCredentials,
	common.KindUnauthenticated:    common.ErrUnauthenticated,
	common.KindInvalidToken:       common.ErrInvalidToken,
	common.KindNotFound:           common.ErrNotFound,
	common.KindEmptyCart:          common.ErrEmptyCart,
	common.KindStorage:            common.ErrStorage,
	common.KindInternal:           common.ErrInternal,
	"rate_limited":                ErrRateLimited,
}

func (e *Error) Unwrap() error {
	if err, ok := sentinelByKind[e.Kind]; ok {
		return err
	}
	return ErrUnexpected
}
