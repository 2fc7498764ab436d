package filestore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/viant/dbdb/storage"
)

// Implementation notes
// - File layout: [superblock:4096][len:u64 BE][payload:len][len:u64 BE][payload:len]...
// - The first 8 bytes of the superblock hold the committed root address (big-endian).
// - Writes go straight to the file descriptor, so there is no user-space buffer to flush;
//   with Sync enabled, fsync is issued before and after the root address write.
// - The root address overwrite is a single 8-byte write inside the first sector. Its
//   atomicity is assumed from the OS/file system, not enforced here.

// Store implements storage.Storage over a single file.
type Store struct {
	mu     sync.Mutex
	path   string
	f      *os.File
	opts   Options
	locked bool
	closed bool

	stats storage.Stats
}

// Open opens or creates the storage file at path and makes sure it holds a full superblock.
func Open(path string, opts ...Option) (*Store, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	options.withDefaults()
	if path == "" {
		return nil, fmt.Errorf("filestore: path is required")
	}
	flag := os.O_RDWR | os.O_CREATE
	if options.ReadOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("filestore: open %s: %w", path, err)
	}
	s := &Store{path: path, f: f, opts: options}
	if !options.ReadOnly {
		if err := s.ensureSuperblock(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return s, nil
}

// Path returns the underlying file path.
func (s *Store) Path() string {
	return s.path
}

// ensureSuperblock pads the file so the first record starts right after the superblock.
func (s *Store) ensureSuperblock() error {
	size, err := s.sizeLocked()
	if err != nil {
		return err
	}
	if size >= storage.SuperblockSize {
		return nil
	}
	if _, err := s.lockLocked(); err != nil {
		return err
	}
	// another process may have padded the file while we waited for the lock
	if size, err = s.sizeLocked(); err != nil {
		_ = s.unlockLocked()
		return err
	}
	if size < storage.SuperblockSize {
		if _, err := s.f.WriteAt(make([]byte, storage.SuperblockSize-size), size); err != nil {
			_ = s.unlockLocked()
			return fmt.Errorf("filestore: init superblock %s: %w", s.path, err)
		}
	}
	return s.unlockLocked()
}

func (s *Store) sizeLocked() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("filestore: stat %s: %w", s.path, err)
	}
	return info.Size(), nil
}

// Lock implements storage.Storage.Lock.
func (s *Store) Lock() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, storage.ErrClosed
	}
	if s.opts.ReadOnly {
		return false, storage.ErrReadOnly
	}
	return s.lockLocked()
}

func (s *Store) lockLocked() (bool, error) {
	if s.locked {
		return false, nil
	}
	if err := s.acquire(); err != nil {
		return false, err
	}
	s.locked = true
	return true, nil
}

func (s *Store) acquire() error {
	switch {
	case s.opts.NonBlocking:
		if err := tryLockExclusive(s.f); err != nil {
			if errors.Is(err, errWouldBlock) {
				return storage.ErrLocked
			}
			return fmt.Errorf("filestore: lock %s: %w", s.path, err)
		}
		return nil
	case s.opts.LockTimeout > 0:
		deadline := time.Now().Add(s.opts.LockTimeout)
		for {
			err := tryLockExclusive(s.f)
			if err == nil {
				return nil
			}
			if !errors.Is(err, errWouldBlock) {
				return fmt.Errorf("filestore: lock %s: %w", s.path, err)
			}
			if !time.Now().Before(deadline) {
				return storage.ErrLockTimeout
			}
			time.Sleep(s.opts.LockPoll)
		}
	default:
		if err := lockExclusiveBlocking(s.f); err != nil {
			return fmt.Errorf("filestore: lock %s: %w", s.path, err)
		}
		return nil
	}
}

// Unlock implements storage.Storage.Unlock.
func (s *Store) Unlock() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	return s.unlockLocked()
}

func (s *Store) unlockLocked() error {
	if !s.locked {
		return nil
	}
	if s.opts.Sync {
		if err := s.f.Sync(); err != nil {
			return fmt.Errorf("filestore: sync %s: %w", s.path, err)
		}
	}
	if err := unlockFile(s.f); err != nil {
		return fmt.Errorf("filestore: unlock %s: %w", s.path, err)
	}
	s.locked = false
	return nil
}

// Locked implements storage.Storage.Locked.
func (s *Store) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Write implements storage.Storage.Write.
func (s *Store) Write(data []byte) (storage.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	if s.opts.ReadOnly {
		return 0, storage.ErrReadOnly
	}
	if _, err := s.lockLocked(); err != nil {
		return 0, err
	}
	// end of file is only stable once we hold the lock
	end, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("filestore: seek %s: %w", s.path, err)
	}
	record := make([]byte, storage.IntegerLength+len(data))
	binary.BigEndian.PutUint64(record, uint64(len(data)))
	copy(record[storage.IntegerLength:], data)
	if _, err := s.f.WriteAt(record, end); err != nil {
		return 0, fmt.Errorf("filestore: write %s: %w", s.path, err)
	}
	s.stats.Appends++
	s.stats.BytesWritten += uint64(len(record))
	return storage.Address(end), nil
}

// Read implements storage.Storage.Read.
func (s *Store) Read(address storage.Address) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, storage.ErrClosed
	}
	if address < storage.SuperblockSize {
		return nil, fmt.Errorf("%w: address %d inside superblock", storage.ErrCorrupt, address)
	}
	size, err := s.sizeLocked()
	if err != nil {
		return nil, err
	}
	end := uint64(size)
	if uint64(address) > end || end-uint64(address) < storage.IntegerLength {
		return nil, fmt.Errorf("%w: address %d beyond end of file %d", storage.ErrCorrupt, address, size)
	}
	var prefix [storage.IntegerLength]byte
	if _, err := s.f.ReadAt(prefix[:], int64(address)); err != nil {
		return nil, fmt.Errorf("filestore: read %s at %d: %w", s.path, address, err)
	}
	length := binary.BigEndian.Uint64(prefix[:])
	if length > end-uint64(address)-storage.IntegerLength {
		return nil, fmt.Errorf("%w: truncated record at %d (length %d)", storage.ErrCorrupt, address, length)
	}
	payload := make([]byte, length)
	if length > 0 {
		n, err := s.f.ReadAt(payload, int64(address)+storage.IntegerLength)
		if n < len(payload) {
			if err == nil || errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: truncated record at %d", storage.ErrCorrupt, address)
			}
			return nil, fmt.Errorf("filestore: read %s at %d: %w", s.path, address, err)
		}
	}
	s.stats.BytesRead += storage.IntegerLength + length
	return payload, nil
}

// CommitRoot implements storage.Storage.CommitRoot.
func (s *Store) CommitRoot(address storage.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	if s.opts.ReadOnly {
		return storage.ErrReadOnly
	}
	if _, err := s.lockLocked(); err != nil {
		return err
	}
	if s.opts.Sync {
		if err := s.f.Sync(); err != nil {
			return fmt.Errorf("filestore: sync %s: %w", s.path, err)
		}
	}
	var buf [storage.IntegerLength]byte
	binary.BigEndian.PutUint64(buf[:], uint64(address))
	if _, err := s.f.WriteAt(buf[:], 0); err != nil {
		return fmt.Errorf("filestore: commit root %s: %w", s.path, err)
	}
	s.stats.Commits++
	return s.unlockLocked()
}

// RootAddress implements storage.Storage.RootAddress.
func (s *Store) RootAddress() (storage.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	var buf [storage.IntegerLength]byte
	n, err := s.f.ReadAt(buf[:], 0)
	if n < len(buf) {
		if n == 0 && errors.Is(err, io.EOF) {
			// never initialised, only reachable in read-only mode
			return 0, nil
		}
		if err == nil || errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: short superblock in %s", storage.ErrCorrupt, s.path)
		}
		return 0, fmt.Errorf("filestore: read root %s: %w", s.path, err)
	}
	return storage.Address(binary.BigEndian.Uint64(buf[:])), nil
}

// Close implements storage.Storage.Close.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.closed = true
	unlockErr := s.unlockLocked()
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("filestore: close %s: %w", s.path, err)
	}
	return unlockErr
}

// Closed implements storage.Storage.Closed.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Stats implements storage.Storage.Stats.
func (s *Store) Stats() storage.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
