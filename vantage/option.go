package vantage

import "github.com/viant/dbdb"

const defaultRadiusFactor = 2.0

type options struct {
	radiusFactor float64
	logf         func(format string, args ...any)
	dbOptions    []dbdb.Option
}

// Option configures an Index.
type Option func(o *options)

// WithRadiusFactor sets the multiplier applied to the best vantage distance to get
// the search radius. Non-positive values keep the default of 2.
func WithRadiusFactor(factor float64) Option {
	return func(o *options) {
		if factor > 0 {
			o.radiusFactor = factor
		}
	}
}

// WithLogf sets a progress logger used by Build.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(o *options) { o.logf = logf }
}

// WithDBOptions passes options to every opened vantage store.
func WithDBOptions(opts ...dbdb.Option) Option {
	return func(o *options) { o.dbOptions = append(o.dbOptions, opts...) }
}
