// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"

	"github.com/pkg/errors"
)

// =============================================================================
// KEY-VALUE MEDIUM
// =============================================================================

// KV is a durable string key-value medium. Implementations are safe for
// concurrent use.
type KV interface {
	// Get returns the stored value, or ErrNotFound.
	Get(key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases the medium.
	Close() error
}

// Watcher is implemented by media that can report changes made by other
// processes on the same device.
type Watcher interface {
	// Watch emits the new value of key whenever it changes on disk.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context, key string) (<-chan string, error)
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open opens the named backend at path. Memory ignores path.
func Open(backend, path string) (KV, error) {
	switch backend {
	case BackendFile:
		return NewFileKV(path)
	case BackendSQLite:
		return NewSQLiteKV(path)
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", backend)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned when a key or transcript doesn't exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &Error{Message: "not found"}

// ErrUnavailable is returned when the medium cannot be read or written.
var ErrUnavailable = &Error{Message: "storage unavailable"}

// Error represents a storage error. Instances compare equal under errors.Is
// when their messages match, and wrap an optional cause.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Is implements errors.Is support for comparing storage errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

func (e *Error) Unwrap() error { return e.Err }

// unavailable wraps cause as ErrUnavailable.
func unavailable(cause error) error {
	return &Error{Message: ErrUnavailable.Message, Err: cause}
}
