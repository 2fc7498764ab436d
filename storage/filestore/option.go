package filestore

import "time"

const defaultLockPoll = 10 * time.Millisecond

// Options configures the store.
type Options struct {
	// ReadOnly opens the file without write access; mutating calls fail with storage.ErrReadOnly.
	ReadOnly bool
	// NonBlocking makes lock acquisition fail immediately with storage.ErrLocked when busy.
	NonBlocking bool
	// LockTimeout bounds lock acquisition; zero waits indefinitely.
	LockTimeout time.Duration
	// LockPoll is the retry interval used with LockTimeout.
	LockPoll time.Duration
	// Sync issues fsync around the root address write and on unlock.
	Sync bool
}

func (o *Options) withDefaults() {
	if o.LockPoll <= 0 {
		o.LockPoll = defaultLockPoll
	}
}

// Option mutates Options.
type Option func(o *Options)

// WithReadOnly opens the store in read-only mode (no writer lock acquisition).
func WithReadOnly(enabled bool) Option {
	return func(o *Options) { o.ReadOnly = enabled }
}

// WithNonBlockingLock makes Lock fail with storage.ErrLocked instead of waiting.
func WithNonBlockingLock() Option {
	return func(o *Options) { o.NonBlocking = true }
}

// WithLockTimeout makes Lock retry until timeout, then fail with storage.ErrLockTimeout.
// If timeout <= 0, Lock waits indefinitely.
func WithLockTimeout(timeout time.Duration) Option {
	return func(o *Options) { o.LockTimeout = timeout }
}

// WithLockPoll sets the retry interval used together with WithLockTimeout.
func WithLockPoll(interval time.Duration) Option {
	return func(o *Options) { o.LockPoll = interval }
}

// WithSync toggles fsync on commit and unlock.
func WithSync(enabled bool) Option {
	return func(o *Options) { o.Sync = enabled }
}
