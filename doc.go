// Package dbdb is a disk-backed key/value index built on an immutable binary search tree.
//
// Every Set or Delete rebuilds the path from the root to the change and leaves the old
// nodes untouched, so readers always see a complete committed tree. Commit appends the
// new nodes to the storage file and then swaps the root address held in the superblock.
// Keys are float64 distances; values are opaque byte strings.
//
// Writers in different processes coordinate through an advisory file lock that is held
// from the first uncommitted change until Commit.
package dbdb
