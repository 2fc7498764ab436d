// Package vantage implements approximate similarity search over vantage point stores.
//
// Each vantage point owns one dbdb store keyed by the distance of every indexed item
// to that vantage point, with the item id as value. A query picks the closest vantage
// point and searches its store within a radius derived from that distance.
// Recall is not guaranteed: the radius bound is a heuristic unless the distance is a metric.
package vantage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/viant/dbdb"
)

// Distance measures the dissimilarity of two items; smaller is more similar.
type Distance[T any] func(a, b T) float64

// Loader materializes an item from its id.
type Loader[T any] interface {
	Load(ctx context.Context, id string) (T, error)
}

// Fingerprinter is optionally implemented by a Loader to detect vantage items
// that changed after the index was built.
type Fingerprinter[T any] interface {
	Fingerprint(item T) (uint64, error)
}

// Match is a search result.
type Match struct {
	ItemID   string  `json:"itemId"`
	Distance float64 `json:"distance"`
}

// SearchStats describes how a query was answered.
type SearchStats struct {
	Vantage      Entry   `json:"vantage"`
	BestDistance float64 `json:"bestDistance"`
	Radius       float64 `json:"radius"`
	Visited      int     `json:"visited"`
}

// Index builds and queries the stores listed in a registry.
type Index[T any] struct {
	registry *Registry
	loader   Loader[T]
	distance Distance[T]
	options
}

// New creates an index over registry.
func New[T any](registry *Registry, loader Loader[T], distance Distance[T], opts ...Option) *Index[T] {
	ret := &Index[T]{
		registry: registry,
		loader:   loader,
		distance: distance,
		options:  options{radiusFactor: defaultRadiusFactor},
	}
	for _, opt := range opts {
		opt(&ret.options)
	}
	return ret
}

// Registry returns the registry, including fingerprints recorded by Build.
func (x *Index[T]) Registry() *Registry {
	return x.registry
}

func (x *Index[T]) printf(format string, args ...any) {
	if x.options.logf != nil {
		x.options.logf(format, args...)
	}
}

func (x *Index[T]) fingerprint(item T) (uint64, bool, error) {
	fp, ok := x.loader.(Fingerprinter[T])
	if !ok {
		return 0, false, nil
	}
	value, err := fp.Fingerprint(item)
	return value, true, err
}

// Build replaces every vantage store with one holding the distance from its
// vantage point to each of items. Every store is committed once.
func (x *Index[T]) Build(ctx context.Context, items []string) error {
	if err := x.registry.Validate(); err != nil {
		return err
	}
	loaded := make([]T, len(items))
	for i, id := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, err := x.loader.Load(ctx, id)
		if err != nil {
			return err
		}
		loaded[i] = item
	}
	for i := range x.registry.Entries {
		entry := &x.registry.Entries[i]
		if err := x.buildStore(ctx, entry, items, loaded); err != nil {
			return fmt.Errorf("vantage: build %s: %w", entry.StorePath, err)
		}
		x.printf("vantage point %d/%d item=%s store=%s items=%d", entry.Index, len(x.registry.Entries), entry.ItemID, entry.StorePath, len(items))
	}
	return nil
}

func (x *Index[T]) buildStore(ctx context.Context, entry *Entry, ids []string, items []T) error {
	vantage, err := x.loader.Load(ctx, entry.ItemID)
	if err != nil {
		return err
	}
	fingerprint, ok, err := x.fingerprint(vantage)
	if err != nil {
		return err
	}
	if ok {
		entry.Fingerprint = fingerprint
	}
	if err := os.Remove(entry.StorePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	db, err := dbdb.Open(entry.StorePath, x.dbOptions...)
	if err != nil {
		return err
	}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			_ = db.Close()
			return err
		}
		if err := db.Set(x.distance(items[i], vantage), []byte(id)); err != nil {
			_ = db.Close()
			return err
		}
	}
	if err := db.Commit(); err != nil {
		_ = db.Close()
		return err
	}
	return db.Close()
}

// Query returns up to k items from the searched neighbourhood of query,
// ordered by ascending distance.
func (x *Index[T]) Query(ctx context.Context, query T, k int) ([]Match, error) {
	matches, _, err := x.QueryWithStats(ctx, query, k)
	return matches, err
}

// QueryWithStats is Query that also reports which store was searched and how.
func (x *Index[T]) QueryWithStats(ctx context.Context, query T, k int) ([]Match, *SearchStats, error) {
	if k <= 0 {
		return nil, nil, fmt.Errorf("%w: k=%d", ErrInvalidCount, k)
	}
	entry, best, err := x.closest(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	stats := &SearchStats{Vantage: *entry, BestDistance: best, Radius: x.radiusFactor * best}
	opts := append(append([]dbdb.Option(nil), x.dbOptions...), dbdb.WithReadOnly(true))
	db, err := dbdb.Open(entry.StorePath, opts...)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	var matches []Match
	stats.Visited, err = Search(db, stats.Radius, func(_ float64, value []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := string(value)
		item, err := x.loader.Load(ctx, id)
		if err != nil {
			return err
		}
		matches = append(matches, Match{ItemID: id, Distance: x.distance(query, item)})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ItemID < matches[j].ItemID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, stats, nil
}

// closest returns the vantage point nearest to query; ties go to the lower index.
func (x *Index[T]) closest(ctx context.Context, query T) (*Entry, float64, error) {
	if x.registry.Len() == 0 {
		return nil, 0, ErrNoVantagePoints
	}
	var best *Entry
	bestDistance := math.Inf(1)
	for i := range x.registry.Entries {
		entry := &x.registry.Entries[i]
		vantage, err := x.loader.Load(ctx, entry.ItemID)
		if err != nil {
			return nil, 0, err
		}
		fingerprint, ok, err := x.fingerprint(vantage)
		if err != nil {
			return nil, 0, err
		}
		if ok && entry.Fingerprint != 0 && fingerprint != entry.Fingerprint {
			return nil, 0, fmt.Errorf("%w: %s", ErrStaleIndex, entry.ItemID)
		}
		if d := x.distance(query, vantage); best == nil || d < bestDistance {
			best, bestDistance = entry, d
		}
	}
	return best, bestDistance, nil
}
