// Package series holds the time series model used as items of the vantage point
// index: a binary codec, distances, a synthetic generator and an afs backed loader.
package series

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrLengthMismatch is returned when two series must have the same number of points.
	ErrLengthMismatch = errors.New("series: length mismatch")
	// ErrEmpty is returned for series without points.
	ErrEmpty = errors.New("series: empty series")
	// ErrInvalid is returned when encoded data cannot be decoded into a series.
	ErrInvalid = errors.New("series: invalid encoding")
)

// Series is a sampled time series.
type Series struct {
	Name   string
	Times  []float64
	Values []float64
}

// New creates a series, copying the inputs.
func New(name string, times, values []float64) (*Series, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d times, %d values", ErrLengthMismatch, len(times), len(values))
	}
	return &Series{
		Name:   name,
		Times:  append([]float64(nil), times...),
		Values: append([]float64(nil), values...),
	}, nil
}

// Len returns the number of points.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean returns the arithmetic mean of the values, 0 for an empty series.
func (s *Series) Mean() float64 {
	return mean(s.Values)
}

// Std returns the population standard deviation of the values.
func (s *Series) Std() float64 {
	return std(s.Values, mean(s.Values))
}

// Standardize returns the values shifted by the mean and scaled by the standard deviation.
// A flat series has zero deviation and standardizes to all zeros.
func (s *Series) Standardize() []float64 {
	m := s.Mean()
	sd := std(s.Values, m)
	out := make([]float64, len(s.Values))
	for i, v := range s.Values {
		if sd == 0 {
			continue
		}
		out[i] = (v - m) / sd
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func std(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
