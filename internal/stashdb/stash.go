// Package stashdb one record type stored in a flat file with its indexes.
//
// A Stash ties together the data file, the sorted primary index, the
// secondary index and the free slot list. The in-memory structures are
// checkpointed explicitly with Load and Save.
package stashdb

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
	"github.com/S0me0neR0man/clinicstash/internal/freelist"
	"github.com/S0me0neR0man/clinicstash/internal/primaryindex"
	"github.com/S0me0neR0man/clinicstash/internal/recordfile"
	"github.com/S0me0neR0man/clinicstash/internal/secondaryindex"
)

// Stash the flat-file store of one record type.
//
// IMPORTANT: does not provide thread safety
type Stash struct {
	schema Schema
	files  Files

	data      *recordfile.File
	primary   *primaryindex.Index
	secondary *secondaryindex.Index
	free      *freelist.List

	chain PutChain
	sugar *zap.SugaredLogger
}

func NewStash(schema Schema, files Files, policy freelist.Policy, logger *zap.Logger) *Stash {
	s := &Stash{
		schema:    schema,
		files:     files,
		data:      recordfile.NewFile(files.Data),
		primary:   primaryindex.New(),
		secondary: secondaryindex.New(),
		free:      freelist.New(policy),
		sugar:     logger.Sugar().With("stash", schema.Name),
	}
	s.chain.Attach(s.validateMiddleware, s.keyMiddleware)
	return s
}

// Attach adds checks that run after validation and key checks, before the write
func (s *Stash) Attach(mwf ...MiddlewarePutFunc) {
	s.chain.Attach(mwf...)
}

func (s *Stash) Name() string {
	return s.schema.Name
}

func (s *Stash) Schema() Schema {
	return s.schema
}

func (s *Stash) Files() Files {
	return s.files
}

// Contains reports whether key is stored
func (s *Stash) Contains(key string) bool {
	return s.primary.Contains(key)
}

// Keys returns all primary keys in order
func (s *Stash) Keys() []string {
	return s.primary.Keys()
}

// Len returns number of stored records
func (s *Stash) Len() int {
	return s.primary.Len()
}

// FreeSlots returns offsets of tombstoned slots waiting for reuse
func (s *Stash) FreeSlots() []int64 {
	return s.free.Offsets()
}

// Offset returns the slot offset of key
func (s *Stash) Offset(key string) (int64, error) {
	return s.primary.Lookup(key)
}

// PrimarySorted reports whether the primary index keeps its order
func (s *Stash) PrimarySorted() bool {
	return s.primary.Sorted()
}

// Add stores a new record
func (s *Stash) Add(rec Record) error {
	m := &Mutation{Operation: InsertOperation, Key: rec.Key(), Record: rec.Clone()}
	return s.chain.put(m, PutHandlerFunc(s.insert))
}

// Update rewrites the record of key in place
func (s *Stash) Update(key string, rec Record) error {
	m := &Mutation{Operation: UpdateOperation, Key: key, Record: rec.Clone()}
	return s.chain.put(m, PutHandlerFunc(s.update))
}

// Delete tombstones the record of key and frees its slot
func (s *Stash) Delete(key string) error {
	const msg = "delete"

	off, err := s.primary.Lookup(key)
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	rec, capacity, _, err := s.readAt(off)
	if err != nil {
		return fmt.Errorf("%s %q: %w", msg, key, err)
	}
	if err := s.data.MarkDeleted(off, capacity); err != nil {
		return fmt.Errorf("%s %q: %w", msg, key, err)
	}

	s.free.Release(off)
	if _, err := s.primary.Remove(key); err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	s.removeSecondary(rec[s.schema.Secondary], key)

	s.sugar.Debugw(msg, "key", key, "offset", off)
	return nil
}

// FindByKey returns the record of key
func (s *Stash) FindByKey(key string) (Record, error) {
	const msg = "find"

	off, err := s.primary.Lookup(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	rec, _, deleted, err := s.readAt(off)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", msg, key, err)
	}
	if deleted {
		s.sugar.Warnw("primary index points at a tombstone", "key", key, "offset", off)
		return nil, fmt.Errorf("%s %q: %w", msg, key, dberr.ErrNotFound)
	}
	return rec, nil
}

// FindByAttribute returns the records whose indexed field equals value.
// Keys the primary index no longer holds are skipped with a warning.
func (s *Stash) FindByAttribute(value string) ([]Record, error) {
	records := make([]Record, 0)
	for _, key := range s.secondary.Find(value) {
		rec, err := s.FindByKey(key)
		if errors.Is(err, dberr.ErrNotFound) {
			s.sugar.Warnw("stale secondary index entry", "value", value, "key", key)
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// validateMiddleware checks the record against the schema
func (s *Stash) validateMiddleware(next PutHandler) PutHandler {
	return PutHandlerFunc(func(m *Mutation) error {
		if err := s.schema.Validate(m.Record); err != nil {
			return fmt.Errorf("%s: %w", m.Operation, err)
		}
		if m.Record.Key() != m.Key {
			return fmt.Errorf("%s %q: %w", m.Operation, m.Key,
				dberr.Validation("primary key cannot change to %q", m.Record.Key()))
		}
		return next.Put(m)
	})
}

// keyMiddleware inserts need a new key, updates an existing one
func (s *Stash) keyMiddleware(next PutHandler) PutHandler {
	return PutHandlerFunc(func(m *Mutation) error {
		exists := s.primary.Contains(m.Key)
		switch {
		case m.Operation == InsertOperation && exists:
			return fmt.Errorf("%s %q: %w", m.Operation, m.Key, dberr.ErrDuplicateKey)
		case m.Operation == UpdateOperation && !exists:
			return fmt.Errorf("%s %q: %w", m.Operation, m.Key, dberr.ErrNotFound)
		}
		return next.Put(m)
	})
}

func (s *Stash) insert(m *Mutation) error {
	const msg = "insert"

	slot, err := recordfile.Encode(m.Record)
	if err != nil {
		return fmt.Errorf("%s %q: %w", msg, m.Key, err)
	}

	off, capacity, reused, err := s.free.Acquire(len(slot)-recordfile.SlotSize(0), s.data.Capacity)
	if err != nil {
		return fmt.Errorf("%s %q: %w", msg, m.Key, err)
	}
	if reused {
		if slot, err = recordfile.EncodeInto(m.Record, capacity); err == nil {
			err = s.data.WriteAt(off, slot)
		}
		if err != nil {
			s.free.Release(off)
			return fmt.Errorf("%s %q: %w", msg, m.Key, err)
		}
	} else {
		if off, err = s.data.Append(slot); err != nil {
			return fmt.Errorf("%s %q: %w", msg, m.Key, err)
		}
	}

	if err := s.primary.Insert(m.Key, off); err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	s.secondary.Insert(m.Record[s.schema.Secondary], m.Key)

	s.sugar.Debugw(msg, "key", m.Key, "offset", off, "reused", reused)
	return nil
}

func (s *Stash) update(m *Mutation) error {
	const msg = "update"

	off, err := s.primary.Lookup(m.Key)
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	prev, capacity, deleted, err := s.readAt(off)
	if err != nil {
		return fmt.Errorf("%s %q: %w", msg, m.Key, err)
	}
	slot, err := recordfile.EncodeInto(m.Record, capacity)
	if err != nil {
		return fmt.Errorf("%s %q: %w", msg, m.Key, err)
	}
	if err := s.data.WriteAt(off, slot); err != nil {
		return fmt.Errorf("%s %q: %w", msg, m.Key, err)
	}

	oldValue, newValue := prev[s.schema.Secondary], m.Record[s.schema.Secondary]
	if oldValue != newValue {
		s.removeSecondary(oldValue, m.Key)
		s.secondary.Insert(newValue, m.Key)
	}

	s.sugar.Debugw(msg, "key", m.Key, "offset", off, "tombstoneCleared", deleted)
	return nil
}

// readAt reads and decodes the slot at off, checks it holds a record of this stash
func (s *Stash) readAt(off int64) (rec Record, capacity int, deleted bool, err error) {
	slot, err := s.data.ReadSlot(off)
	if err != nil {
		return nil, 0, false, err
	}
	fields, deleted, err := recordfile.Decode(slot, len(s.schema.Fields), off)
	if err != nil {
		return nil, 0, false, err
	}
	return fields, len(slot) - recordfile.SlotSize(0), deleted, nil
}

func (s *Stash) removeSecondary(value, key string) {
	if err := s.secondary.Remove(value, key); err != nil {
		s.sugar.Warnw("secondary index out of sync", "value", value, "key", key, "error", err)
	}
}
