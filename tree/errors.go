package tree

import "errors"

var (
	// ErrKeyNotFound is returned by Get and Delete when the key is absent.
	ErrKeyNotFound = errors.New("tree: key not found")
	// ErrInvalidKey is returned for keys that cannot be ordered (NaN).
	ErrInvalidKey = errors.New("tree: invalid key")
)
