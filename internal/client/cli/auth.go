package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bookshelf/internal/common"
)

// getSimpleText, getPassword and getPrice are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getPrice = GetPrice

// Register prompts for name, email and password and creates an account. On
// success the new session is used right away.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.api.Register(ctx, name, email, password)
	if err != nil {
		a.report("Registration failed", err)
		return err
	}

	a.userName = user.Email
	fmt.Fprintf(a.out, "Welcome, %s!\n", user.Name)
	return nil
}

// Login prompts for credentials and opens a session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.api.Login(ctx, email, password)
	if err != nil {
		a.report("Login unsuccessful", err)
		return err
	}

	a.userName = user.Email
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Logout forgets the session token.
func (a *App) Logout(ctx context.Context) error {
	a.api.Logout()
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	user, err := a.api.Profile(ctx)
	if err != nil {
		a.report("Could not load profile", err)
		return err
	}
	fmt.Fprintf(a.out, "Name:   %s\nEmail:  %s\n", user.Name, user.Email)
	if user.CreatedAt != nil {
		fmt.Fprintf(a.out, "Member since %s\n", user.CreatedAt.Format("2006-01-02"))
	}
	return nil
}
