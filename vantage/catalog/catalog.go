// Package catalog persists vantage point registries in a SQLite database so that
// queries can reopen the stores a build produced.
package catalog

import "time"

// Build describes one index build.
type Build struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	Items        int       `json:"items"`
	Distance     string    `json:"distance"`
	RadiusFactor float64   `json:"radiusFactor"`
}
