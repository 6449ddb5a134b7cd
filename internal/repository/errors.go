package repository

import "errors"

// ErrNotFound is returned when a session id is not in the store.
var ErrNotFound = errors.New("not found")
