package stashdb

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/S0me0neR0man/clinicstash/internal/freelist"
	"github.com/S0me0neR0man/clinicstash/internal/primaryindex"
	"github.com/S0me0neR0man/clinicstash/internal/recordfile"
	"github.com/S0me0neR0man/clinicstash/internal/secondaryindex"
	"github.com/S0me0neR0man/clinicstash/internal/textfile"
)

// indexes the in-memory structures of a stash
type indexes struct {
	primary   *primaryindex.Index
	secondary *secondaryindex.Index
	free      *freelist.List
}

// Load reads the three index files. Missing files mean empty structures.
// When the primary index file is gone but the data file exists the indexes
// are rebuilt from the data file instead.
// On error the in-memory state is left as it was.
func (s *Stash) Load() error {
	if !textfile.Exists(s.files.Primary) && s.data.Exists() {
		s.sugar.Warnw("primary index missing, rebuilding from data file", "data", s.files.Data)
		return s.Rebuild()
	}

	ix, err := s.readIndexes()
	if err != nil {
		return fmt.Errorf("load %s: %w", s.schema.Name, err)
	}
	s.swap(ix, "load")
	return nil
}

// Save writes all three index files, every file is attempted
func (s *Stash) Save() error {
	err := multierr.Combine(
		s.primary.Save(s.files.Primary),
		s.secondary.Save(s.files.Secondary),
		s.free.Save(s.files.Free),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", s.schema.Name, err)
	}
	s.sugar.Debugw("save", "records", s.primary.Len(), "free", s.free.Len())
	return nil
}

// Rebuild recreates the indexes and the free list by scanning the data file
func (s *Stash) Rebuild() error {
	ix, err := s.scanData()
	if err != nil {
		return fmt.Errorf("rebuild %s: %w", s.schema.Name, err)
	}
	s.swap(ix, "rebuild")
	return nil
}

func (s *Stash) readIndexes() (indexes, error) {
	ix := indexes{
		primary:   primaryindex.New(),
		secondary: secondaryindex.New(),
		free:      freelist.New(s.free.Policy()),
	}
	if err := ix.primary.Load(s.files.Primary); err != nil {
		return indexes{}, err
	}
	if err := ix.secondary.Load(s.files.Secondary); err != nil {
		return indexes{}, err
	}
	if err := ix.free.Load(s.files.Free); err != nil {
		return indexes{}, err
	}
	return ix, nil
}

// scanData live slots feed the primary and secondary index, tombstones the free list
func (s *Stash) scanData() (indexes, error) {
	var entries []primaryindex.Entry
	ix := indexes{
		primary:   primaryindex.New(),
		secondary: secondaryindex.New(),
		free:      freelist.New(s.free.Policy()),
	}

	if !s.data.Exists() {
		return ix, nil
	}
	err := s.data.Scan(func(off int64, slot []byte) error {
		fields, deleted, err := recordfile.Decode(slot, len(s.schema.Fields), off)
		if err != nil {
			return err
		}
		if deleted {
			ix.free.Release(off)
			return nil
		}
		rec := Record(fields)
		entries = append(entries, primaryindex.Entry{Key: rec.Key(), Offset: off})
		ix.secondary.Insert(rec[s.schema.Secondary], rec.Key())
		return nil
	})
	if err != nil {
		return indexes{}, err
	}
	if err := ix.primary.Reset(entries); err != nil {
		return indexes{}, err
	}
	return ix, nil
}

func (s *Stash) swap(ix indexes, msg string) {
	s.primary, s.secondary, s.free = ix.primary, ix.secondary, ix.free
	if s.primary.Len() == 0 {
		s.sugar.Warnw(msg+": no records", "data", s.files.Data)
		return
	}
	s.sugar.Infow(msg, "records", s.primary.Len(), "free", s.free.Len())
}
