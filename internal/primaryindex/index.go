// Package primaryindex sorted unique key -> slot offset index
package primaryindex

import (
	"fmt"
	"sort"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
)

// Entry one key and the offset of its slot
type Entry struct {
	Key    string
	Offset int64
}

// Index entries sorted by key, keys are unique.
//
// IMPORTANT: does not provide thread safety
type Index struct {
	entries []Entry
}

func New() *Index {
	return &Index{}
}

// search returns the insertion point of key and whether key is present
func (idx *Index) search(key string) (int, bool) {
	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].Key >= key
	})
	return i, i < len(idx.entries) && idx.entries[i].Key == key
}

// Lookup returns the offset of key
func (idx *Index) Lookup(key string) (int64, error) {
	i, ok := idx.search(key)
	if !ok {
		return 0, fmt.Errorf("lookup %q: %w", key, dberr.ErrNotFound)
	}
	return idx.entries[i].Offset, nil
}

// Contains reports whether key is indexed
func (idx *Index) Contains(key string) bool {
	_, ok := idx.search(key)
	return ok
}

// Insert adds key at its sorted position
func (idx *Index) Insert(key string, offset int64) error {
	i, ok := idx.search(key)
	if ok {
		return fmt.Errorf("insert %q: %w", key, dberr.ErrDuplicateKey)
	}
	idx.entries = append(idx.entries, Entry{})
	copy(idx.entries[i+1:], idx.entries[i:])
	idx.entries[i] = Entry{Key: key, Offset: offset}
	return nil
}

// Remove deletes key, returns its offset
func (idx *Index) Remove(key string) (int64, error) {
	i, ok := idx.search(key)
	if !ok {
		return 0, fmt.Errorf("remove %q: %w", key, dberr.ErrNotFound)
	}
	offset := idx.entries[i].Offset
	idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
	return offset, nil
}

// UpdateOffset points an existing key at another slot
func (idx *Index) UpdateOffset(key string, offset int64) error {
	i, ok := idx.search(key)
	if !ok {
		return fmt.Errorf("update offset %q: %w", key, dberr.ErrNotFound)
	}
	idx.entries[i].Offset = offset
	return nil
}

// Len returns number of entries
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Keys returns all keys in order
func (idx *Index) Keys() []string {
	keys := make([]string, len(idx.entries))
	for i, e := range idx.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of all entries in order
func (idx *Index) Entries() []Entry {
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Sorted reports whether the keys are strictly increasing
func (idx *Index) Sorted() bool {
	for i := 1; i < len(idx.entries); i++ {
		if idx.entries[i-1].Key >= idx.entries[i].Key {
			return false
		}
	}
	return true
}

// Reset replaces the content with entries, sorting them by key
func (idx *Index) Reset(entries []Entry) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Key < sorted[j].Key
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Key == sorted[i].Key {
			return fmt.Errorf("reset: key %q: %w", sorted[i].Key, dberr.ErrDuplicateKey)
		}
	}
	idx.entries = sorted
	return nil
}
