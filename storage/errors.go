package storage

import "errors"

var (
	// ErrClosed is returned when the storage has been closed.
	ErrClosed = errors.New("storage: storage closed")

	// ErrCorrupt indicates an address does not reference a valid length-prefixed record.
	ErrCorrupt = errors.New("storage: data corruption detected")

	// ErrLocked is returned by a non-blocking lock when another holder owns the file lock.
	ErrLocked = errors.New("storage: locked by another writer")

	// ErrLockTimeout indicates a bounded-wait lock acquisition gave up.
	ErrLockTimeout = errors.New("storage: lock timeout")

	// ErrReadOnly is returned by mutating calls on a read-only storage.
	ErrReadOnly = errors.New("storage: read-only")
)
