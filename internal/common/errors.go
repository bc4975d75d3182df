// Package common defines shared sentinel errors and small helpers used across
// the webkech client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrorNotFound = errors.New("not found")

	// Configuration errors.
	ErrorUnsupportedBackend = errors.New("unsupported storage backend")
	ErrorInvalidLogLevel    = errors.New("invalid log level")
)
