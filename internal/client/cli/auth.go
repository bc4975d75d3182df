package cli

import (
	"bytes"
	"context"
	"errors"
	"unicode/utf8"

	"github.com/dmitrijs2005/webkech/internal/client/models"
	"github.com/dmitrijs2005/webkech/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

const minSecretLength = 6

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordMismatch = errors.New("passwords do not match, please try again")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")

	ErrNotLoggedIn = errors.New("not logged in")
	ErrLoading     = errors.New("loading")
)

// Register prompts for an email and a confirmed password, validates them and
// creates the account. On success the new account is signed in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	if email == "" {
		return ErrEmailRequired
	}

	password, err := getPassword(a.reader, "Enter password: ", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.reader, "Confirm password: ", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return ErrPasswordMismatch
	}
	if utf8.RuneCount(password) < minSecretLength {
		return ErrPasswordTooShort
	}

	acc, err := a.store.Register(ctx, email, password)
	if err != nil {
		a.logger.Info(ctx, "registration failed", "email", email, "error", err)
		return err
	}

	a.say("Account created successfully! You're now logged in as %s.", acc.Email)
	return nil
}

// Login prompts for credentials and signs the matching account in.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Enter password: ", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	acc, err := a.store.Login(ctx, email, password)
	if err != nil {
		a.logger.Info(ctx, "login failed", "email", email, "error", err)
		return err
	}

	a.say("Welcome back, %s!", acc.Email)
	return nil
}

// Logout clears the session. It succeeds when nobody is signed in.
func (a *App) Logout(ctx context.Context) error {
	if err := a.store.Logout(ctx); err != nil {
		return err
	}
	a.say("Logged out.")
	return nil
}

// Whoami prints the signed-in account, subject to the access gate.
func (a *App) Whoami(ctx context.Context) error {
	acc, err := a.requireAccount()
	if err != nil {
		return err
	}
	a.say("%s (id %s, registered %s)", acc.Email, acc.ID, acc.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

// Status prints the session state without gating.
func (a *App) Status(ctx context.Context) error {
	state := a.store.State()
	if acc, ok := a.store.Current(); ok {
		a.say("%s as %s", state, acc.Email)
		return nil
	}
	a.say("%s", state)
	return nil
}

// requireAccount is the access gate for commands that need a signed-in user.
func (a *App) requireAccount() (models.Account, error) {
	switch a.store.State() {
	case models.SessionUnknown:
		return models.Account{}, ErrLoading
	case models.SessionUnauthenticated:
		return models.Account{}, ErrNotLoggedIn
	}
	acc, _ := a.store.Current()
	return acc, nil
}
