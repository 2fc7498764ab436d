package memstore

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/viant/dbdb/storage"
)

// Store is an in-memory implementation of storage.Storage.
// It reproduces the file layout byte for byte, including the reserved superblock,
// so addresses match what filestore would hand out. Locking is process-local only.
type Store struct {
	mu     sync.Mutex
	data   []byte
	locked bool
	closed bool
	stats  storage.Stats
}

// New creates a new in-memory store holding an empty superblock.
func New() *Store {
	return &Store{data: make([]byte, storage.SuperblockSize)}
}

// Bytes returns a copy of the raw image, superblock included.
func (s *Store) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

// Lock implements storage.Storage.Lock.
func (s *Store) Lock() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, storage.ErrClosed
	}
	if s.locked {
		return false, nil
	}
	s.locked = true
	return true, nil
}

// Unlock implements storage.Storage.Unlock.
func (s *Store) Unlock() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
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
func (s *Store) Write(value []byte) (storage.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	s.locked = true
	off := len(s.data)
	var prefix [storage.IntegerLength]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(value)))
	s.data = append(s.data, prefix[:]...)
	s.data = append(s.data, value...)
	s.stats.Appends++
	s.stats.BytesWritten += uint64(storage.IntegerLength + len(value))
	return storage.Address(off), nil
}

// Read returns a copy of the record payload at address.
func (s *Store) Read(address storage.Address) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, storage.ErrClosed
	}
	end := uint64(len(s.data))
	if address < storage.SuperblockSize || uint64(address) > end || end-uint64(address) < storage.IntegerLength {
		return nil, fmt.Errorf("%w: invalid address %d", storage.ErrCorrupt, address)
	}
	start := uint64(address) + storage.IntegerLength
	length := binary.BigEndian.Uint64(s.data[address:start])
	if length > end-start {
		return nil, fmt.Errorf("%w: truncated record at %d (length %d)", storage.ErrCorrupt, address, length)
	}
	out := make([]byte, length)
	copy(out, s.data[start:start+length])
	s.stats.BytesRead += storage.IntegerLength + length
	return out, nil
}

// CommitRoot implements storage.Storage.CommitRoot.
func (s *Store) CommitRoot(address storage.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	binary.BigEndian.PutUint64(s.data[:storage.IntegerLength], uint64(address))
	s.stats.Commits++
	s.locked = false
	return nil
}

// RootAddress implements storage.Storage.RootAddress.
func (s *Store) RootAddress() (storage.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	return storage.Address(binary.BigEndian.Uint64(s.data[:storage.IntegerLength])), nil
}

// Close implements storage.Storage.Close.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.closed = true
	s.locked = false
	return nil
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
