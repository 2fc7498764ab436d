package tree

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/viant/dbdb/storage"
)

// nodeRecordSize is the payload size of a node record:
// [left:u64][key:f64 bits][value:u64][right:u64], all big-endian.
const nodeRecordSize = 4 * storage.IntegerLength

// Node is an immutable tree node. Changes produce new nodes that share
// untouched children with the old ones.
type Node struct {
	left  *NodeRef
	key   float64
	value *ValueRef
	right *NodeRef
}

// Key returns the node key.
func (n *Node) Key() float64 {
	return n.key
}

func (n *Node) withLeft(left *NodeRef) *Node {
	return &Node{left: left, key: n.key, value: n.value, right: n.right}
}

func (n *Node) withRight(right *NodeRef) *Node {
	return &Node{left: n.left, key: n.key, value: n.value, right: right}
}

func (n *Node) withValue(value *ValueRef) *Node {
	return &Node{left: n.left, key: n.key, value: value, right: n.right}
}

func encodeNode(left storage.Address, key float64, value storage.Address, right storage.Address) []byte {
	data := make([]byte, nodeRecordSize)
	binary.BigEndian.PutUint64(data[0:8], uint64(left))
	binary.BigEndian.PutUint64(data[8:16], math.Float64bits(key))
	binary.BigEndian.PutUint64(data[16:24], uint64(value))
	binary.BigEndian.PutUint64(data[24:32], uint64(right))
	return data
}

func decodeNode(data []byte) (*Node, error) {
	if len(data) != nodeRecordSize {
		return nil, fmt.Errorf("%w: node record has %d bytes, want %d", storage.ErrCorrupt, len(data), nodeRecordSize)
	}
	left := storage.Address(binary.BigEndian.Uint64(data[0:8]))
	key := math.Float64frombits(binary.BigEndian.Uint64(data[8:16]))
	value := storage.Address(binary.BigEndian.Uint64(data[16:24]))
	right := storage.Address(binary.BigEndian.Uint64(data[24:32]))
	if math.IsNaN(key) {
		return nil, fmt.Errorf("%w: node key is NaN", storage.ErrCorrupt)
	}
	if value < storage.SuperblockSize {
		return nil, fmt.Errorf("%w: node value address %d", storage.ErrCorrupt, value)
	}
	if !validChild(left) || !validChild(right) {
		return nil, fmt.Errorf("%w: node child addresses %d/%d", storage.ErrCorrupt, left, right)
	}
	return &Node{
		left:  childRef(left),
		key:   key,
		value: &ValueRef{address: value},
		right: childRef(right),
	}, nil
}

func validChild(address storage.Address) bool {
	return address == 0 || address >= storage.SuperblockSize
}

func childRef(address storage.Address) *NodeRef {
	if address == 0 {
		return nil
	}
	return &NodeRef{address: address}
}
