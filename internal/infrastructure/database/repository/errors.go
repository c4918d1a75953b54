package repository

import "errors"

// ErrNotFound is returned by lookups when no row matches. Callers
// branch on it with errors.Is to distinguish a miss from a failure.
var ErrNotFound = errors.New("record not found")
