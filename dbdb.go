package dbdb

import (
	"errors"
	"sync"

	"github.com/viant/dbdb/storage"
	"github.com/viant/dbdb/storage/filestore"
	"github.com/viant/dbdb/tree"
)

var (
	// ErrKeyNotFound is returned by Get and Delete for absent keys.
	ErrKeyNotFound = tree.ErrKeyNotFound
	// ErrClosed is returned by every call made after Close.
	ErrClosed = storage.ErrClosed
	// ErrEmpty is returned by RootKey on an empty tree.
	ErrEmpty = errors.New("dbdb: empty tree")
)

// DB is a key/value store over one storage file. It owns the storage and the tree.
type DB struct {
	mu      sync.Mutex
	storage storage.Storage
	tree    *tree.Tree
}

// Open opens or creates the database file at path.
func Open(path string, opts ...Option) (*DB, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	s, err := filestore.Open(path, o.store...)
	if err != nil {
		return nil, err
	}
	db, err := newDB(s, o)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return db, nil
}

// OpenStorage creates a DB over an already opened storage; the DB takes ownership of s.
// Storage-level options are ignored here, they belong to the storage constructor.
func OpenStorage(s storage.Storage, opts ...Option) (*DB, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return newDB(s, o)
}

func newDB(s storage.Storage, o options) (*DB, error) {
	t, err := tree.New(s, o.tree...)
	if err != nil {
		return nil, err
	}
	return &DB{storage: s, tree: t}, nil
}

func (d *DB) ensureOpen() error {
	if d.storage.Closed() {
		return ErrClosed
	}
	return nil
}

// Get returns the value stored at key.
func (d *DB) Get(key float64) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	return d.tree.Get(key)
}

// Set stores value at key. It takes the write lock, which is held until Commit or Close.
func (d *DB) Set(key float64, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureOpen(); err != nil {
		return err
	}
	return d.tree.Set(key, value)
}

// Delete removes key.
func (d *DB) Delete(key float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureOpen(); err != nil {
		return err
	}
	return d.tree.Delete(key)
}

// Commit makes pending changes visible to other readers and releases the write lock.
func (d *DB) Commit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureOpen(); err != nil {
		return err
	}
	return d.tree.Commit()
}

// Close discards uncommitted changes, releases the lock and closes the storage.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.storage.Close()
}

// Root returns the root node, or nil for an empty tree.
func (d *DB) Root() (*tree.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	return d.tree.Root()
}

// RootKey returns the key held by the root node.
func (d *DB) RootKey() (float64, error) {
	root, err := d.Root()
	if err != nil {
		return 0, err
	}
	if root == nil {
		return 0, ErrEmpty
	}
	return root.Key(), nil
}

// KeyOf returns the key of node. It reads only the node and works after Close.
func (d *DB) KeyOf(node *tree.Node) float64 {
	return node.Key()
}

// Left returns the left child of node, or nil.
func (d *DB) Left(node *tree.Node) (*tree.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	return d.tree.Left(node)
}

// Right returns the right child of node, or nil.
func (d *DB) Right(node *tree.Node) (*tree.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	return d.tree.Right(node)
}

// ValueOf returns the value held by node.
func (d *DB) ValueOf(node *tree.Node) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	return d.tree.Value(node)
}

// Walk calls fn for every key in ascending order.
func (d *DB) Walk(fn func(key float64, value []byte) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureOpen(); err != nil {
		return err
	}
	return d.tree.Walk(fn)
}

// Len returns the number of keys visible to this DB.
func (d *DB) Len() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureOpen(); err != nil {
		return 0, err
	}
	return d.tree.Len()
}

// Stats returns storage counters. The counters stay readable after Close.
func (d *DB) Stats() storage.Stats {
	return d.storage.Stats()
}
