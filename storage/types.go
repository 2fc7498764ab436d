package storage

const (
	// SuperblockSize is the size of the fixed header region at the start of a storage file.
	SuperblockSize = 4096
	// IntegerLength is the encoded size of a root address or record length prefix.
	IntegerLength = 8
)

// Address is the file offset of a record's length prefix.
// Zero means "no record": an absent child or an empty tree.
type Address uint64

// Stats exposes best-effort runtime counters.
type Stats struct {
	// Records appended.
	Appends uint64 `json:"appends"`
	// Bytes appended, including length prefixes.
	BytesWritten uint64 `json:"bytesWritten"`
	// Bytes read from records, including length prefixes.
	BytesRead uint64 `json:"bytesRead"`
	// Root address commits.
	Commits uint64 `json:"commits"`
}

// Storage is an append-only record store with a single committed root address.
//
// Records are never modified once written; updates append new records and the
// previous ones become garbage. Implementations serve a single writer at a time,
// coordinated through Lock/Unlock.
type Storage interface {
	// Write appends a length-prefixed record and returns its address.
	// It acquires the write lock if not already held and does not release it.
	Write(data []byte) (Address, error)

	// Read returns the payload of the record at address.
	Read(address Address) ([]byte, error)

	// CommitRoot flushes pending writes, stores address as the new root and releases the lock.
	CommitRoot(address Address) error

	// RootAddress returns the last committed root address (0 for an empty tree).
	RootAddress() (Address, error)

	// Lock acquires the exclusive write lock. It reports false if the lock was already held.
	Lock() (bool, error)

	// Unlock flushes and releases the write lock if held.
	Unlock() error

	// Locked reports whether the caller currently holds the write lock.
	Locked() bool

	// Close releases the lock if held and closes the underlying resources.
	Close() error

	// Closed reports whether Close has been called.
	Closed() bool

	// Stats returns best-effort counters; it should be cheap to call.
	Stats() Stats
}
