// Package common contains shared constants and sentinel errors used across
// fileshare components. Callers should use errors.Is to match sentinel
// values and errors.As to inspect *OpError.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Upload precondition errors.
	ErrQuotaExceeded = errors.New("max file number reached")
	ErrNameConflict  = errors.New("file already exists")

	// Access gate errors (wrong owner, bad password, private visibility).
	ErrAccessDenied = errors.New("access denied")

	// Metadata persistence failed after the object was stored.
	ErrMetadataPersist = errors.New("metadata persist failed")

	// Service-level errors.
	ErrInternal   = errors.New("internal error")
	ErrValidation = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)

// OpError reports an unsuccessful transport result from the object store.
// Op is one of "upload", "download" or "delete"; Code carries the HTTP
// status returned by the store, zero when the call never reached it.
type OpError struct {
	Op   string
	Code int
	Text string
	Err  error
}

func (e *OpError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s failed: status %d %s", e.Op, e.Code, e.Text)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
