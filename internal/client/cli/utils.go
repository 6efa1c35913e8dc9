package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bookshelf/internal/client/api"
	"github.com/dmitrijs2005/bookshelf/internal/common"
)

// report prints a short, user-facing explanation of err.
func (a *App) report(what string, err error) {
	var msg string
	switch {
	case errors.Is(err, api.ErrNotLoggedIn), errors.Is(err, common.ErrUnauthenticated):
		msg = "please log in first"
	case errors.Is(err, common.ErrInvalidToken):
		a.api.Logout()
		a.userName = ""
		msg = "session expired, please log in again"
	case errors.Is(err, common.ErrInvalidCredentials):
		msg = "wrong email or password"
	case errors.Is(err, common.ErrDuplicateUser):
		msg = "an account with this email already exists"
	case errors.Is(err, common.ErrEmptyCart):
		msg = "your cart is empty"
	case errors.Is(err, common.ErrNotFound):
		msg = "not found"
	case errors.Is(err, api.ErrRateLimited):
		msg = "too many requests, try again in a minute"
	case errors.Is(err, api.ErrUnavailable):
		msg = "server unavailable"
	default:
		msg = err.Error()
	}
	fmt.Fprintf(a.out, "%s: %s\n", what, msg)
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
