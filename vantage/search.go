package vantage

import (
	"github.com/viant/dbdb"
	"github.com/viant/dbdb/tree"
)

// Search walks the store keeping to nodes whose key is within radius.
// A node with key > radius is skipped and only its left subtree is explored,
// otherwise visit is called and both subtrees are explored.
// It returns the number of visited nodes.
func Search(db *dbdb.DB, radius float64, visit func(key float64, value []byte) error) (int, error) {
	root, err := db.Root()
	if err != nil || root == nil {
		return 0, err
	}
	visited := 0
	pending := []*tree.Node{root}
	for len(pending) > 0 {
		node := pending[0]
		pending = pending[1:]
		left, err := db.Left(node)
		if err != nil {
			return visited, err
		}
		if left != nil {
			pending = append(pending, left)
		}
		key := db.KeyOf(node)
		if key > radius {
			continue
		}
		value, err := db.ValueOf(node)
		if err != nil {
			return visited, err
		}
		visited++
		if err := visit(key, value); err != nil {
			return visited, err
		}
		right, err := db.Right(node)
		if err != nil {
			return visited, err
		}
		if right != nil {
			pending = append(pending, right)
		}
	}
	return visited, nil
}
