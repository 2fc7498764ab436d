package dbdb_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/viant/dbdb"
	"github.com/viant/dbdb/storage"
	"github.com/viant/dbdb/storage/memstore"
)

func mustSet(t *testing.T, db *dbdb.DB, key float64, value []byte) {
	t.Helper()
	if err := db.Set(key, value); err != nil {
		t.Fatalf("set(%v): %v", key, err)
	}
}

func mustCommit(t *testing.T, db *dbdb.DB) {
	t.Helper()
	if err := db.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestDB_Navigation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.dbdb")
	db, err := dbdb.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if _, err := db.RootKey(); !errors.Is(err, dbdb.ErrEmpty) {
		t.Fatalf("root key on empty: err = %v", err)
	}
	mustSet(t, db, 3.0, []byte("a"))
	mustSet(t, db, 1.0, []byte("b"))
	mustSet(t, db, 5.0, []byte("c"))
	if err := db.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	rootKey, err := db.RootKey()
	if err != nil || rootKey != 3.0 {
		t.Fatalf("root key = %v, %v", rootKey, err)
	}
	root, err := db.Root()
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	left, err := db.Left(root)
	if err != nil || db.KeyOf(left) != 1.0 {
		t.Fatalf("left = %v, %v", left, err)
	}
	right, err := db.Right(root)
	if err != nil || db.KeyOf(right) != 5.0 {
		t.Fatalf("right = %v, %v", right, err)
	}
	if leaf, err := db.Left(left); err != nil || leaf != nil {
		t.Fatalf("leaf child = %v, %v", leaf, err)
	}
	value, err := db.ValueOf(right)
	if err != nil || string(value) != "c" {
		t.Fatalf("value = %q, %v", value, err)
	}
}

func TestDB_DeleteAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.dbdb")
	db, err := dbdb.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i, key := range []float64{0.5, 0.25, 0.75, 0.125} {
		mustSet(t, db, key, []byte{byte('a' + i)})
	}
	mustCommit(t, db)
	if err := db.Delete(0.25); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := db.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := db.Get(0.25); !errors.Is(err, dbdb.ErrKeyNotFound) {
		t.Fatalf("get deleted: err = %v", err)
	}
	rootBefore, err := db.RootKey()
	if err != nil {
		t.Fatalf("root key: %v", err)
	}
	_ = db.Close()

	for i := 0; i < 2; i++ {
		db, err = dbdb.Open(path, dbdb.WithReadOnly(true))
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		rootKey, err := db.RootKey()
		if err != nil || rootKey != rootBefore {
			t.Fatalf("root key = %v, %v; want %v", rootKey, err, rootBefore)
		}
		if n, err := db.Len(); err != nil || n != 3 {
			t.Fatalf("len = %d, %v; want 3", n, err)
		}
		if value, err := db.Get(0.125); err != nil || string(value) != "d" {
			t.Fatalf("get = %q, %v", value, err)
		}
		if err := db.Set(1, []byte("x")); !errors.Is(err, storage.ErrReadOnly) {
			t.Fatalf("set on read-only: err = %v", err)
		}
		_ = db.Close()
	}
}

func TestDB_Closed(t *testing.T) {
	db, err := dbdb.OpenStorage(memstore.New())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	mustSet(t, db, 1, []byte("x"))
	mustCommit(t, db)
	node, err := db.Root()
	if err != nil || node == nil {
		t.Fatalf("root = %v, %v", node, err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := db.Close(); !errors.Is(err, dbdb.ErrClosed) {
		t.Fatalf("second close: err = %v", err)
	}
	if _, err := db.Get(1); !errors.Is(err, dbdb.ErrClosed) {
		t.Fatalf("get: err = %v", err)
	}
	if err := db.Set(1, nil); !errors.Is(err, dbdb.ErrClosed) {
		t.Fatalf("set: err = %v", err)
	}
	if err := db.Delete(1); !errors.Is(err, dbdb.ErrClosed) {
		t.Fatalf("delete: err = %v", err)
	}
	if err := db.Commit(); !errors.Is(err, dbdb.ErrClosed) {
		t.Fatalf("commit: err = %v", err)
	}
	if _, err := db.Root(); !errors.Is(err, dbdb.ErrClosed) {
		t.Fatalf("root: err = %v", err)
	}
	if _, err := db.Left(node); !errors.Is(err, dbdb.ErrClosed) {
		t.Fatalf("left: err = %v", err)
	}
	if _, err := db.ValueOf(node); !errors.Is(err, dbdb.ErrClosed) {
		t.Fatalf("value: err = %v", err)
	}
	if _, err := db.Len(); !errors.Is(err, dbdb.ErrClosed) {
		t.Fatalf("len: err = %v", err)
	}
	if err := db.Walk(func(float64, []byte) error { return nil }); !errors.Is(err, dbdb.ErrClosed) {
		t.Fatalf("walk: err = %v", err)
	}
	// pure accessors keep working
	if key := db.KeyOf(node); key != 1 {
		t.Fatalf("key of = %v, want 1", key)
	}
	if stats := db.Stats(); stats.Commits != 1 {
		t.Fatalf("stats after close = %+v", stats)
	}
}

func TestDB_WriterContention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contention.dbdb")
	first, err := dbdb.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer first.Close()
	second, err := dbdb.Open(path, dbdb.WithNonBlockingLock())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer second.Close()

	mustSet(t, first, 1, []byte("first"))
	if err := second.Set(2, []byte("second")); !errors.Is(err, storage.ErrLocked) {
		t.Fatalf("set while locked: err = %v", err)
	}
	if _, err := second.Get(1); !errors.Is(err, dbdb.ErrKeyNotFound) {
		t.Fatalf("uncommitted key visible: err = %v", err)
	}
	if err := first.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := second.Set(2, []byte("second")); err != nil {
		t.Fatalf("set after commit: %v", err)
	}
	if err := second.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	var keys []float64
	if err := first.Walk(func(key float64, _ []byte) error {
		keys = append(keys, key)
		return nil
	}); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(keys) != 2 || keys[0] != 1 || keys[1] != 2 {
		t.Fatalf("keys = %v", keys)
	}
	if stats := second.Stats(); stats.Commits != 1 {
		t.Fatalf("commits = %d, want 1", stats.Commits)
	}
}
