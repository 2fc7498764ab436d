//go:build !no_sqlite

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viant/dbdb/vantage"
	_ "modernc.org/sqlite" // pure Go sqlite driver
)

// Catalog wraps *sql.DB with registry helpers.
type Catalog struct{ sql *sql.DB }

// Open opens or creates the catalog database and ensures its schema.
func Open(ctx context.Context, path string) (*Catalog, error) {
	sqldb, err := sql.Open("sqlite", dataSource(path))
	if err != nil {
		return nil, err
	}
	// optional tuning, unsupported pragmas are ignored
	_, _ = sqldb.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")
	ret := &Catalog{sql: sqldb}
	if err := ret.EnsureSchema(ctx); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return ret, nil
}

// EnsureSchema creates required tables and seeds meta if missing.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
            key TEXT PRIMARY KEY,
            value TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS builds (
            id TEXT PRIMARY KEY,
            created_at DATETIME NOT NULL,
            items INTEGER NOT NULL,
            distance TEXT NOT NULL,
            radius_factor REAL NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS vantage_points (
            build_id TEXT NOT NULL,
            idx INTEGER NOT NULL,
            item_id TEXT NOT NULL,
            store_path TEXT NOT NULL,
            fingerprint INTEGER NOT NULL,
            PRIMARY KEY (build_id, idx)
        );`,
	}
	tx, err := c.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO meta(key,value) VALUES
        ('schema_version','1'),('latest_build','')`); err != nil {
		return err
	}
	return tx.Commit()
}

// Save records registry as a new build and marks it latest. An empty build ID is
// replaced with a generated one; the stored build is returned.
func (c *Catalog) Save(ctx context.Context, registry *vantage.Registry, build Build) (*Build, error) {
	if err := registry.Validate(); err != nil {
		return nil, err
	}
	if build.ID == "" {
		build.ID = uuid.NewString()
	}
	if build.CreatedAt.IsZero() {
		build.CreatedAt = time.Now().UTC()
	}
	tx, err := c.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT INTO builds(id, created_at, items, distance, radius_factor) VALUES(?, ?, ?, ?, ?)`,
		build.ID, build.CreatedAt, build.Items, build.Distance, build.RadiusFactor); err != nil {
		return nil, fmt.Errorf("vantage/catalog: save build %s: %w", build.ID, err)
	}
	for _, entry := range registry.Entries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO vantage_points(build_id, idx, item_id, store_path, fingerprint) VALUES(?, ?, ?, ?, ?)`,
			build.ID, entry.Index, entry.ItemID, entry.StorePath, int64(entry.Fingerprint)); err != nil {
			return nil, fmt.Errorf("vantage/catalog: save vantage point %d: %w", entry.Index, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE meta SET value=? WHERE key='latest_build'`, build.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &build, nil
}

// Latest returns the most recently saved build and its registry.
func (c *Catalog) Latest(ctx context.Context) (*Build, *vantage.Registry, error) {
	var id string
	err := c.sql.QueryRowContext(ctx, `SELECT value FROM meta WHERE key='latest_build'`).Scan(&id)
	if err != nil {
		return nil, nil, err
	}
	if id == "" {
		return nil, nil, ErrNotFound
	}
	return c.Load(ctx, id)
}

// Load returns the build with the given ID and its registry.
func (c *Catalog) Load(ctx context.Context, id string) (*Build, *vantage.Registry, error) {
	build := &Build{}
	err := c.sql.QueryRowContext(ctx, `SELECT id, created_at, items, distance, radius_factor FROM builds WHERE id=?`, id).
		Scan(&build.ID, &build.CreatedAt, &build.Items, &build.Distance, &build.RadiusFactor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, nil, err
	}
	rows, err := c.sql.QueryContext(ctx, `SELECT idx, item_id, store_path, fingerprint FROM vantage_points WHERE build_id=? ORDER BY idx`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	registry := &vantage.Registry{}
	for rows.Next() {
		var entry vantage.Entry
		var fingerprint int64
		if err := rows.Scan(&entry.Index, &entry.ItemID, &entry.StorePath, &fingerprint); err != nil {
			return nil, nil, err
		}
		entry.Fingerprint = uint64(fingerprint)
		registry.Entries = append(registry.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return build, registry, nil
}

// Builds lists every saved build, newest first.
func (c *Catalog) Builds(ctx context.Context) ([]Build, error) {
	rows, err := c.sql.QueryContext(ctx, `SELECT id, created_at, items, distance, radius_factor FROM builds ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Build
	for rows.Next() {
		var b Build
		if err := rows.Scan(&b.ID, &b.CreatedAt, &b.Items, &b.Distance, &b.RadiusFactor); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (c *Catalog) Close() error { return c.sql.Close() }
