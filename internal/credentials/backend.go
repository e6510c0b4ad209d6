package credentials

import (
	"errors"
	"fmt"
)

// SecretBackend abstracts a desktop keyring holding the credential map as
// one opaque blob.
type SecretBackend interface {
	// Available reports whether the backend can be used right now.
	Available() bool
	// Kind names the backend for display.
	Kind() string
	// Get returns the stored blob, or nil when nothing is stored yet.
	Get() ([]byte, error)
	// Set stores the blob, replacing any previous value.
	Set(value []byte) error
	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete() error
}

// ErrBackendUnavailable is returned when keyring use is requested but no
// usable backend is present.
var ErrBackendUnavailable = errors.New("secret backend unavailable")

// BackendError wraps a keyring failure so callers can tell backend trouble
// apart from file storage trouble.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("secret backend %s failed: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
