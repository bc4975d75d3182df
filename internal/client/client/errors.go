package client

import "errors"

// ErrStorageUnavailable marks a backend that could not be opened or migrated.
var ErrStorageUnavailable = errors.New("storage unavailable")
