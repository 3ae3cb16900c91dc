// Package apperr holds the sentinel errors mapped to HTTP status codes at the edge.
package apperr

import "errors"

var (
	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness or reference violation.
	ErrConflict = errors.New("conflict")
)
