package services

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateAccount  = errors.New("account already exists")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidCredential = errors.New("invalid credentials")

	// ErrAccountRecordMissing means a credential points at an account that is
	// not stored. It matches ErrAccountNotFound.
	ErrAccountRecordMissing = fmt.Errorf("%w: credential references a missing account", ErrAccountNotFound)

	// ErrCorruptState marks an unparseable persisted value. It is logged and
	// the value reset; it never reaches callers.
	ErrCorruptState = errors.New("corrupt persisted state")
)

// UserMessage returns the text shown to the user for an error returned by
// the session store.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateAccount):
		return "Email already registered."
	case errors.Is(err, ErrAccountRecordMissing):
		return "Account not found."
	case errors.Is(err, ErrAccountNotFound):
		return "Account not found. Please register first."
	case errors.Is(err, ErrInvalidCredential):
		return "Invalid credentials."
	}
	return err.Error()
}
