package stashdb

import (
	"path/filepath"
	"strings"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
	"github.com/S0me0neR0man/clinicstash/internal/recordfile"
)

// Record the fields of one entity, field 0 is the primary key
type Record []string

// Key returns the primary key
func (r Record) Key() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

func (r Record) Clone() Record {
	return append(Record(nil), r...)
}

// Field one column of a record type, MaxLen 0 means no limit
type Field struct {
	Name   string
	MaxLen int
}

// Schema describes a record type. Secondary is the position of the field
// covered by the secondary index.
type Schema struct {
	Name      string
	Fields    []Field
	Secondary int
}

// FieldIndex returns the position of the field called name
func (s Schema) FieldIndex(name string) (int, bool) {
	for i, f := range s.Fields {
		if strings.EqualFold(f.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// Validate checks field count, limits and reserved characters
func (s Schema) Validate(rec Record) error {
	if len(rec) != len(s.Fields) {
		return dberr.Validation("%s: expected %d fields, got %d", s.Name, len(s.Fields), len(rec))
	}
	if rec.Key() == "" {
		return dberr.Validation("%s: empty %s", s.Name, s.Fields[0].Name)
	}
	for i, f := range s.Fields {
		v := rec[i]
		if f.MaxLen > 0 && len(v) > f.MaxLen {
			return dberr.Validation("%s: %s is %d bytes, max %d", s.Name, f.Name, len(v), f.MaxLen)
		}
		if strings.ContainsAny(v, recordfile.Delimiter+"\r\n") {
			return dberr.Validation("%s: %s contains a reserved character", s.Name, f.Name)
		}
		if strings.TrimSpace(v) != v {
			return dberr.Validation("%s: %s has leading or trailing spaces", s.Name, f.Name)
		}
	}
	if n := recordfile.EncodedLen(rec); n > recordfile.MaxCapacity {
		return dberr.Validation("%s: record is %d bytes, max %d", s.Name, n, recordfile.MaxCapacity)
	}
	return nil
}

// Files the on-disk layout of one stash
type Files struct {
	Data      string
	Primary   string
	Secondary string
	Free      string
}

// FilesIn the default file names for name under dir
func FilesIn(dir, name string) Files {
	base := filepath.Join(dir, name)
	return Files{
		Data:      base + ".dat",
		Primary:   base + ".idx",
		Secondary: base + ".sidx",
		Free:      base + ".avail",
	}
}
