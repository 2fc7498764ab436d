//go:build no_sqlite

package catalog

import (
	"context"

	"github.com/viant/dbdb/vantage"
)

// Catalog is a stub when built with the no_sqlite tag.
type Catalog struct{}

// Open returns ErrNotEnabled.
func Open(_ context.Context, _ string) (*Catalog, error) { return nil, ErrNotEnabled }

func (c *Catalog) EnsureSchema(_ context.Context) error { return ErrNotEnabled }
func (c *Catalog) Save(_ context.Context, _ *vantage.Registry, _ Build) (*Build, error) {
	return nil, ErrNotEnabled
}
func (c *Catalog) Latest(_ context.Context) (*Build, *vantage.Registry, error) {
	return nil, nil, ErrNotEnabled
}
func (c *Catalog) Load(_ context.Context, _ string) (*Build, *vantage.Registry, error) {
	return nil, nil, ErrNotEnabled
}
func (c *Catalog) Builds(_ context.Context) ([]Build, error) { return nil, ErrNotEnabled }
func (c *Catalog) Close() error                              { return nil }
