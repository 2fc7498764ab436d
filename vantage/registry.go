package vantage

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
)

// Entry describes one vantage point and the store indexing distances from it.
type Entry struct {
	// Index is 1-based.
	Index       int    `json:"index"`
	ItemID      string `json:"itemId"`
	StorePath   string `json:"storePath"`
	Fingerprint uint64 `json:"fingerprint,omitempty"`
}

// Registry lists the vantage points of an index.
type Registry struct {
	Entries []Entry `json:"entries"`
}

// StoreName returns the store file name used for the vantage point with the given 1-based index.
func StoreName(index int) string {
	return fmt.Sprintf("VPDB%d.dbdb", index)
}

// SelectVantagePoints picks k distinct items at random and assigns each a store file in dir.
func SelectVantagePoints(ids []string, k int, rnd *rand.Rand, dir string) (*Registry, error) {
	if k <= 0 || k > len(ids) {
		return nil, fmt.Errorf("%w: %d vantage points from %d items", ErrInvalidCount, k, len(ids))
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	perm := rnd.Perm(len(ids))
	ret := &Registry{Entries: make([]Entry, k)}
	for i := 0; i < k; i++ {
		ret.Entries[i] = Entry{
			Index:     i + 1,
			ItemID:    ids[perm[i]],
			StorePath: filepath.Join(dir, StoreName(i+1)),
		}
	}
	return ret, nil
}

// Len returns the number of vantage points.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Entries)
}

// Validate checks that entries are numbered 1..n and reference distinct items and stores.
func (r *Registry) Validate() error {
	if r.Len() == 0 {
		return ErrNoVantagePoints
	}
	items := map[string]bool{}
	stores := map[string]bool{}
	for i, entry := range r.Entries {
		if entry.Index != i+1 {
			return fmt.Errorf("vantage: entry %d has index %d", i+1, entry.Index)
		}
		if entry.ItemID == "" || entry.StorePath == "" {
			return fmt.Errorf("vantage: entry %d is incomplete", entry.Index)
		}
		if items[entry.ItemID] {
			return fmt.Errorf("vantage: duplicate vantage item %s", entry.ItemID)
		}
		if stores[entry.StorePath] {
			return fmt.Errorf("vantage: duplicate store %s", entry.StorePath)
		}
		items[entry.ItemID] = true
		stores[entry.StorePath] = true
	}
	return nil
}

// IsVantagePoint reports whether id is one of the vantage items.
func (r *Registry) IsVantagePoint(id string) bool {
	for _, entry := range r.Entries {
		if entry.ItemID == id {
			return true
		}
	}
	return false
}
