package dbdb

import (
	"time"

	"github.com/viant/dbdb/storage/filestore"
	"github.com/viant/dbdb/tree"
)

type options struct {
	store []filestore.Option
	tree  []tree.Option
}

// Option configures a DB.
type Option func(o *options)

// WithLockTimeout bounds write lock acquisition; zero waits indefinitely.
func WithLockTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.store = append(o.store, filestore.WithLockTimeout(timeout))
	}
}

// WithNonBlockingLock makes writes fail with storage.ErrLocked while another writer holds the file.
func WithNonBlockingLock() Option {
	return func(o *options) {
		o.store = append(o.store, filestore.WithNonBlockingLock())
	}
}

// WithReadOnly opens the file without write access.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.store = append(o.store, filestore.WithReadOnly(enabled))
	}
}

// WithSync toggles fsync around commits.
func WithSync(enabled bool) Option {
	return func(o *options) {
		o.store = append(o.store, filestore.WithSync(enabled))
	}
}

// WithNodeCache sets how many decoded nodes are kept in memory; 0 disables caching.
func WithNodeCache(size int) Option {
	return func(o *options) {
		o.tree = append(o.tree, tree.WithNodeCache(size))
	}
}
