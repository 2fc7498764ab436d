package vantage

import "errors"

var (
	// ErrNoVantagePoints is returned when a registry has no entries.
	ErrNoVantagePoints = errors.New("vantage: no vantage points")
	// ErrStaleIndex is returned when a vantage item changed after the index was built.
	ErrStaleIndex = errors.New("vantage: vantage item changed since build")
	// ErrInvalidCount is returned for non-positive or oversized counts.
	ErrInvalidCount = errors.New("vantage: invalid count")
)
