// Package secondaryindex non-unique attribute value -> primary keys index.
//
// Buckets live in a red-black tree ordered by attribute value, so the
// persisted file and Values come out sorted.
package secondaryindex

import (
	"fmt"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
)

// Index attribute value -> ordered bucket of primary keys
//
// IMPORTANT: does not provide thread safety
type Index struct {
	tree *redBlackTree
}

func New() *Index {
	return &Index{tree: newRedBlackTree()}
}

// Insert appends key to the bucket of value
func (idx *Index) Insert(value, key string) {
	node := idx.tree.put(value)
	node.keys = append(node.keys, key)
}

// Remove takes key out of the bucket of value, drops the bucket once empty
func (idx *Index) Remove(value, key string) error {
	node := idx.tree.get(value)
	if node == nil {
		return fmt.Errorf("remove %q from %q: %w", key, value, dberr.ErrNotFound)
	}
	for i, k := range node.keys {
		if k != key {
			continue
		}
		node.keys = append(node.keys[:i], node.keys[i+1:]...)
		if len(node.keys) == 0 {
			idx.tree.remove(value)
		}
		return nil
	}
	return fmt.Errorf("remove %q from %q: %w", key, value, dberr.ErrNotFound)
}

// Find returns a copy of the bucket of value, empty if absent
func (idx *Index) Find(value string) []string {
	node := idx.tree.get(value)
	if node == nil {
		return []string{}
	}
	keys := make([]string, len(node.keys))
	copy(keys, node.keys)
	return keys
}

// Len returns number of buckets
func (idx *Index) Len() int {
	return idx.tree.sizeof()
}

// Values returns all attribute values in order
func (idx *Index) Values() []string {
	values := make([]string, 0, idx.tree.sizeof())
	idx.Walk(func(value string, _ []string) bool {
		values = append(values, value)
		return true
	})
	return values
}

// Walk calls fn for every bucket in value order until fn returns false.
// fn must not modify keys.
func (idx *Index) Walk(fn func(value string, keys []string) bool) {
	it := idx.tree.iterator()
	for it.next() {
		if !fn(it.node.value, it.node.keys) {
			return
		}
	}
}

// Reset drops every bucket
func (idx *Index) Reset() {
	idx.tree.clear()
}

func (idx *Index) String() string {
	return idx.tree.String()
}
