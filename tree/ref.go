package tree

import "github.com/viant/dbdb/storage"

// ValueRef references an opaque value that lives in memory, on disk, or both.
// Once it has an address it never changes.
type ValueRef struct {
	value   []byte
	address storage.Address
}

// NewValueRef returns an unpersisted reference holding a copy of value.
func NewValueRef(value []byte) *ValueRef {
	data := make([]byte, len(value))
	copy(data, value)
	return &ValueRef{value: data}
}

// Address returns the record address, or 0 if the value has not been persisted.
func (r *ValueRef) Address() storage.Address {
	if r == nil {
		return 0
	}
	return r.address
}

// Resolve returns the value, reading and caching it on first use.
func (r *ValueRef) Resolve(s storage.Storage) ([]byte, error) {
	if r.value == nil && r.address != 0 {
		data, err := s.Read(r.address)
		if err != nil {
			return nil, err
		}
		r.value = data
	}
	return r.value, nil
}

// Persist writes the value unless it already has an address.
func (r *ValueRef) Persist(s storage.Storage) (storage.Address, error) {
	if r.address != 0 || r.value == nil {
		return r.address, nil
	}
	address, err := s.Write(r.value)
	if err != nil {
		return 0, err
	}
	r.address = address
	return address, nil
}

// NodeRef references a tree node. An unresolved ref carries only an address,
// a resolved one holds the node and gets an address once persisted.
// A nil ref, or one with neither, is an absent node.
type NodeRef struct {
	node    *Node
	address storage.Address
}

// Address returns the node record address, or 0 if not persisted.
func (r *NodeRef) Address() storage.Address {
	if r == nil {
		return 0
	}
	return r.address
}

// IsEmpty reports whether the ref points at no node.
func (r *NodeRef) IsEmpty() bool {
	return r == nil || (r.node == nil && r.address == 0)
}

// Persist stores the referenced node after its value and children (post-order),
// so every address embedded in the node record is already on disk.
func (r *NodeRef) Persist(s storage.Storage) (storage.Address, error) {
	if r.IsEmpty() {
		return 0, nil
	}
	if r.address != 0 {
		return r.address, nil
	}
	n := r.node
	valueAddress, err := n.value.Persist(s)
	if err != nil {
		return 0, err
	}
	leftAddress, err := n.left.Persist(s)
	if err != nil {
		return 0, err
	}
	rightAddress, err := n.right.Persist(s)
	if err != nil {
		return 0, err
	}
	address, err := s.Write(encodeNode(leftAddress, n.key, valueAddress, rightAddress))
	if err != nil {
		return 0, err
	}
	r.address = address
	return address, nil
}
