package tree

import (
	"fmt"
	"math"

	"github.com/viant/dbdb/internal/lru"
	"github.com/viant/dbdb/storage"
)

const defaultNodeCacheSize = 1024

// Tree is a persistent, unbalanced binary search tree keyed by float64.
//
// Set and Delete never modify existing nodes: they build a new path from the root
// down to the change and share everything else. The new root lives in memory
// until Commit writes the new nodes and swaps the root address.
// A Tree is not safe for concurrent use.
type Tree struct {
	storage storage.Storage
	root    *NodeRef
	cache   *lru.Cache[storage.Address, *Node]
}

// Option configures a Tree.
type Option func(t *Tree)

// WithNodeCache sets the number of decoded nodes kept by address; 0 disables the cache.
func WithNodeCache(size int) Option {
	return func(t *Tree) {
		t.cache = lru.New[storage.Address, *Node](size)
	}
}

// New creates a tree over s, positioned at the last committed root.
func New(s storage.Storage, opts ...Option) (*Tree, error) {
	t := &Tree{storage: s}
	for _, opt := range opts {
		opt(t)
	}
	if t.cache == nil {
		t.cache = lru.New[storage.Address, *Node](defaultNodeCacheSize)
	}
	if err := t.refresh(); err != nil {
		return nil, err
	}
	return t, nil
}

// refresh points the tree at the committed root, keeping already resolved
// nodes when the root has not moved.
func (t *Tree) refresh() error {
	address, err := t.storage.RootAddress()
	if err != nil {
		return err
	}
	if t.root != nil && t.root.address == address && address != 0 {
		return nil
	}
	t.root = childRef(address)
	return nil
}

// refreshUnlocked refreshes unless this tree holds the write lock, in which case
// its in-memory root already includes every change it is allowed to see.
func (t *Tree) refreshUnlocked() error {
	if t.storage.Locked() {
		return nil
	}
	return t.refresh()
}

func (t *Tree) follow(ref *NodeRef) (*Node, error) {
	if ref.IsEmpty() {
		return nil, nil
	}
	if ref.node != nil {
		return ref.node, nil
	}
	if node, ok := t.cache.Get(ref.address); ok {
		ref.node = node
		return node, nil
	}
	data, err := t.storage.Read(ref.address)
	if err != nil {
		return nil, err
	}
	node, err := decodeNode(data)
	if err != nil {
		return nil, fmt.Errorf("tree: node at %d: %w", ref.address, err)
	}
	t.cache.Put(ref.address, node)
	ref.node = node
	return node, nil
}

func checkKey(key float64) error {
	if math.IsNaN(key) {
		return ErrInvalidKey
	}
	return nil
}

// Get returns the value stored at key.
func (t *Tree) Get(key float64) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if err := t.refreshUnlocked(); err != nil {
		return nil, err
	}
	node, err := t.follow(t.root)
	if err != nil {
		return nil, err
	}
	for node != nil {
		switch {
		case key < node.key:
			node, err = t.follow(node.left)
		case key > node.key:
			node, err = t.follow(node.right)
		default:
			return t.Value(node)
		}
		if err != nil {
			return nil, err
		}
	}
	return nil, ErrKeyNotFound
}

// beginWrite takes the write lock. When the lock is taken fresh the root is
// reloaded so a concurrent writer's commit is not clobbered.
func (t *Tree) beginWrite() (bool, error) {
	acquired, err := t.storage.Lock()
	if err != nil {
		return false, err
	}
	if acquired {
		if err := t.refresh(); err != nil {
			_ = t.storage.Unlock()
			return false, err
		}
	}
	return acquired, nil
}

// abortWrite gives the lock back if the failed call was the one that took it.
func (t *Tree) abortWrite(acquired bool, err error) error {
	if acquired {
		_ = t.storage.Unlock()
	}
	return err
}

// Set stores value at key, replacing any previous value. The change is visible
// to this tree immediately and to other readers after Commit.
func (t *Tree) Set(key float64, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	acquired, err := t.beginWrite()
	if err != nil {
		return err
	}
	node, err := t.follow(t.root)
	if err != nil {
		return t.abortWrite(acquired, err)
	}
	root, err := t.insert(node, key, NewValueRef(value))
	if err != nil {
		return t.abortWrite(acquired, err)
	}
	t.root = root
	return nil
}

func (t *Tree) insert(node *Node, key float64, value *ValueRef) (*NodeRef, error) {
	var result *Node
	switch {
	case node == nil:
		result = &Node{key: key, value: value}
	case key < node.key:
		left, err := t.follow(node.left)
		if err != nil {
			return nil, err
		}
		ref, err := t.insert(left, key, value)
		if err != nil {
			return nil, err
		}
		result = node.withLeft(ref)
	case key > node.key:
		right, err := t.follow(node.right)
		if err != nil {
			return nil, err
		}
		ref, err := t.insert(right, key, value)
		if err != nil {
			return nil, err
		}
		result = node.withRight(ref)
	default:
		result = node.withValue(value)
	}
	return &NodeRef{node: result}, nil
}

// Delete removes key. It fails with ErrKeyNotFound if the key is absent.
func (t *Tree) Delete(key float64) error {
	if err := checkKey(key); err != nil {
		return err
	}
	acquired, err := t.beginWrite()
	if err != nil {
		return err
	}
	node, err := t.follow(t.root)
	if err != nil {
		return t.abortWrite(acquired, err)
	}
	root, err := t.delete(node, key)
	if err != nil {
		return t.abortWrite(acquired, err)
	}
	t.root = root
	return nil
}

func (t *Tree) delete(node *Node, key float64) (*NodeRef, error) {
	if node == nil {
		return nil, ErrKeyNotFound
	}
	switch {
	case key < node.key:
		left, err := t.follow(node.left)
		if err != nil {
			return nil, err
		}
		ref, err := t.delete(left, key)
		if err != nil {
			return nil, err
		}
		return &NodeRef{node: node.withLeft(ref)}, nil
	case key > node.key:
		right, err := t.follow(node.right)
		if err != nil {
			return nil, err
		}
		ref, err := t.delete(right, key)
		if err != nil {
			return nil, err
		}
		return &NodeRef{node: node.withRight(ref)}, nil
	}
	left, err := t.follow(node.left)
	if err != nil {
		return nil, err
	}
	right, err := t.follow(node.right)
	if err != nil {
		return nil, err
	}
	switch {
	case left != nil && right != nil:
		// replace with the in-order predecessor, then drop it from the left subtree
		predecessor, err := t.max(left)
		if err != nil {
			return nil, err
		}
		ref, err := t.delete(left, predecessor.key)
		if err != nil {
			return nil, err
		}
		return &NodeRef{node: &Node{left: ref, key: predecessor.key, value: predecessor.value, right: node.right}}, nil
	case left != nil:
		return node.left, nil
	default:
		return node.right, nil
	}
}

func (t *Tree) max(node *Node) (*Node, error) {
	for {
		next, err := t.follow(node.right)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return node, nil
		}
		node = next
	}
}

// Commit persists every new node and value reachable from the in-memory root,
// then atomically replaces the root address and releases the write lock.
// Without a held lock there is nothing to commit and Commit is a no-op.
func (t *Tree) Commit() error {
	if !t.storage.Locked() {
		return nil
	}
	address, err := t.root.Persist(t.storage)
	if err != nil {
		return err
	}
	return t.storage.CommitRoot(address)
}

// RootAddress returns the address of the in-memory root (0 if empty or not yet persisted).
func (t *Tree) RootAddress() storage.Address {
	return t.root.Address()
}

// Root returns the current root node, or nil for an empty tree.
func (t *Tree) Root() (*Node, error) {
	if err := t.refreshUnlocked(); err != nil {
		return nil, err
	}
	return t.follow(t.root)
}

// Left returns the left child of node, or nil.
func (t *Tree) Left(node *Node) (*Node, error) {
	if node == nil {
		return nil, nil
	}
	return t.follow(node.left)
}

// Right returns the right child of node, or nil.
func (t *Tree) Right(node *Node) (*Node, error) {
	if node == nil {
		return nil, nil
	}
	return t.follow(node.right)
}

// Value returns a copy of the value held by node.
func (t *Tree) Value(node *Node) ([]byte, error) {
	value, err := node.value.Resolve(t.storage)
	if err != nil {
		return nil, err
	}
	return append(make([]byte, 0, len(value)), value...), nil
}

// Walk calls fn for every key in ascending order, stopping at the first error.
func (t *Tree) Walk(fn func(key float64, value []byte) error) error {
	if err := t.refreshUnlocked(); err != nil {
		return err
	}
	return t.walk(t.root, fn)
}

func (t *Tree) walk(ref *NodeRef, fn func(key float64, value []byte) error) error {
	node, err := t.follow(ref)
	if err != nil || node == nil {
		return err
	}
	if err := t.walk(node.left, fn); err != nil {
		return err
	}
	value, err := t.Value(node)
	if err != nil {
		return err
	}
	if err := fn(node.key, value); err != nil {
		return err
	}
	return t.walk(node.right, fn)
}

// Len returns the number of keys.
func (t *Tree) Len() (int, error) {
	if err := t.refreshUnlocked(); err != nil {
		return 0, err
	}
	return t.count(t.root)
}

func (t *Tree) count(ref *NodeRef) (int, error) {
	node, err := t.follow(ref)
	if err != nil || node == nil {
		return 0, err
	}
	left, err := t.count(node.left)
	if err != nil {
		return 0, err
	}
	right, err := t.count(node.right)
	if err != nil {
		return 0, err
	}
	return left + right + 1, nil
}

// Min returns the node holding the smallest key, or nil for an empty tree.
func (t *Tree) Min() (*Node, error) {
	node, err := t.Root()
	if err != nil || node == nil {
		return nil, err
	}
	for {
		next, err := t.follow(node.left)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return node, nil
		}
		node = next
	}
}

// Max returns the node holding the largest key, or nil for an empty tree.
func (t *Tree) Max() (*Node, error) {
	node, err := t.Root()
	if err != nil || node == nil {
		return nil, err
	}
	return t.max(node)
}
