package models

import (
	"errors"
	"fmt"
)

// PermissionDeniedError is returned when the chat service refuses access to
// a server or channel. Syncs treat it as a per-channel skip.
type PermissionDeniedError struct {
	Resource string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("access denied for %s", e.Resource)
}

// FetchError wraps a transient failure talking to the chat service.
type FetchError struct {
	Resource string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StorageError wraps a failure of the local message store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ValidationError is returned when a remote payload has an unexpected shape.
type ValidationError struct {
	Resource string
	Reason   string
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid payload for %s: %s: %v", e.Resource, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid payload for %s: %s", e.Resource, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsPermissionDenied reports whether err is, or wraps, a PermissionDeniedError.
func IsPermissionDenied(err error) bool {
	var pd *PermissionDeniedError
	return errors.As(err, &pd)
}

// IsStorageError reports whether err is, or wraps, a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
