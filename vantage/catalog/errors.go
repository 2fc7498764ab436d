package catalog

import "errors"

var (
	// ErrNotEnabled is returned when built with the no_sqlite tag.
	ErrNotEnabled = errors.New("vantage/catalog: not enabled (built with -tags no_sqlite)")
	// ErrNotFound is returned when no build matches.
	ErrNotFound = errors.New("vantage/catalog: build not found")
)
