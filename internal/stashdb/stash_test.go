package stashdb

import (
	"log"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
	"github.com/S0me0neR0man/clinicstash/internal/freelist"
)

var (
	once   sync.Once
	logger *zap.Logger
)

func getTestLogger() *zap.Logger {
	once.Do(func() {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatal(err)
		}
	})

	return logger
}

var testSchema = Schema{
	Name: "doctors",
	Fields: []Field{
		{Name: "id", MaxLen: 15},
		{Name: "name", MaxLen: 30},
		{Name: "address", MaxLen: 30},
	},
	Secondary: 1,
}

func newTestStash(t *testing.T, policy freelist.Policy) *Stash {
	t.Helper()
	return NewStash(testSchema, FilesIn(t.TempDir(), testSchema.Name), policy, getTestLogger())
}

func dataSize(t *testing.T, s *Stash) int64 {
	t.Helper()
	info, err := os.Stat(s.Files().Data)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return info.Size()
}

func TestStash_AddFind(t *testing.T) {
	s := newTestStash(t, freelist.LIFO)

	require.NoError(t, s.Add(Record{"D1", "Alice", "1 Main St"}))
	require.NoError(t, s.Add(Record{"D2", "Bob", "2 Oak Ave"}))

	rec, err := s.FindByKey("D2")
	require.NoError(t, err)
	require.Equal(t, Record{"D2", "Bob", "2 Oak Ave"}, rec)

	_, err = s.FindByKey("D7")
	require.ErrorIs(t, err, dberr.ErrNotFound)

	recs, err := s.FindByAttribute("Alice")
	require.NoError(t, err)
	require.Equal(t, []Record{{"D1", "Alice", "1 Main St"}}, recs)

	recs, err = s.FindByAttribute("Nobody")
	require.NoError(t, err)
	require.Empty(t, recs)

	require.Equal(t, []string{"D1", "D2"}, s.Keys())
	require.Equal(t, 2, s.Len())
}

func TestStash_AddRejects(t *testing.T) {
	s := newTestStash(t, freelist.LIFO)
	require.NoError(t, s.Add(Record{"D1", "Alice", "1 Main St"}))
	size := dataSize(t, s)

	tests := []struct {
		name string
		rec  Record
		want error
	}{
		{"duplicate", Record{"D1", "Other", "x"}, dberr.ErrDuplicateKey},
		{"too long", Record{"D2", "A name that is far longer than thirty bytes", "x"}, dberr.ErrValidation},
		{"delimiter", Record{"D2", "Al|ce", "x"}, dberr.ErrValidation},
		{"newline", Record{"D2", "Alice", "1\nMain"}, dberr.ErrValidation},
		{"padded", Record{"D2", "Alice ", "x"}, dberr.ErrValidation},
		{"field count", Record{"D2", "Alice"}, dberr.ErrValidation},
		{"empty key", Record{"", "Alice", "x"}, dberr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, s.Add(tt.rec), tt.want)
		})
	}

	require.Equal(t, size, dataSize(t, s))
	require.Equal(t, 1, s.Len())
}

func TestStash_DeleteReusesSlot(t *testing.T) {
	s := newTestStash(t, freelist.LIFO)

	require.NoError(t, s.Add(Record{"D1", "Alice", "1 Main St"}))
	require.NoError(t, s.Add(Record{"D2", "Bob", "2 Oak Ave"}))
	d1, err := s.Offset("D1")
	require.NoError(t, err)

	require.NoError(t, s.Delete("D1"))
	require.Equal(t, []int64{d1}, s.FreeSlots())
	_, err = s.FindByKey("D1")
	require.ErrorIs(t, err, dberr.ErrNotFound)
	recs, err := s.FindByAttribute("Alice")
	require.NoError(t, err)
	require.Empty(t, recs)

	size := dataSize(t, s)
	require.NoError(t, s.Add(Record{"D3", "Cy", "3 Elm"}))
	d3, err := s.Offset("D3")
	require.NoError(t, err)
	require.Equal(t, d1, d3)
	require.Equal(t, size, dataSize(t, s))
	require.Empty(t, s.FreeSlots())

	rec, err := s.FindByKey("D3")
	require.NoError(t, err)
	require.Equal(t, Record{"D3", "Cy", "3 Elm"}, rec)
	_, err = s.FindByKey("D1")
	require.ErrorIs(t, err, dberr.ErrNotFound)

	require.ErrorIs(t, s.Delete("D1"), dberr.ErrNotFound)
}

func TestStash_LargerRecordAppends(t *testing.T) {
	s := newTestStash(t, freelist.LIFO)

	require.NoError(t, s.Add(Record{"D1", "Al", "x"}))
	d1, err := s.Offset("D1")
	require.NoError(t, err)
	require.NoError(t, s.Delete("D1"))

	size := dataSize(t, s)
	require.NoError(t, s.Add(Record{"D2", "Bartholomew", "22 Long Road"}))
	d2, err := s.Offset("D2")
	require.NoError(t, err)
	require.Equal(t, size, d2)
	require.Equal(t, []int64{d1}, s.FreeSlots())
}

func TestStash_FirstFit(t *testing.T) {
	s := newTestStash(t, freelist.FirstFit)

	require.NoError(t, s.Add(Record{"D1", "Alice Longname", "1 Main Street"}))
	require.NoError(t, s.Add(Record{"D2", "Bo", "x"}))
	d1, err := s.Offset("D1")
	require.NoError(t, err)
	d2, err := s.Offset("D2")
	require.NoError(t, err)

	require.NoError(t, s.Delete("D1"))
	require.NoError(t, s.Delete("D2"))

	// the most recent slot is too small, first-fit still finds D1's
	require.NoError(t, s.Add(Record{"D3", "Carol", "3 Elm Street"}))
	d3, err := s.Offset("D3")
	require.NoError(t, err)
	require.Equal(t, d1, d3)
	require.Equal(t, []int64{d2}, s.FreeSlots())
}

func TestStash_Update(t *testing.T) {
	s := newTestStash(t, freelist.LIFO)
	require.NoError(t, s.Add(Record{"D1", "Alice", "1 Main St"}))
	off, err := s.Offset("D1")
	require.NoError(t, err)

	require.NoError(t, s.Update("D1", Record{"D1", "Ann", "1 Main"}))
	rec, err := s.FindByKey("D1")
	require.NoError(t, err)
	require.Equal(t, Record{"D1", "Ann", "1 Main"}, rec)

	moved, err := s.Offset("D1")
	require.NoError(t, err)
	require.Equal(t, off, moved)

	recs, err := s.FindByAttribute("Alice")
	require.NoError(t, err)
	require.Empty(t, recs)
	recs, err = s.FindByAttribute("Ann")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	// the shrunk record still owns its first capacity
	require.NoError(t, s.Update("D1", Record{"D1", "Alice", "1 Main St"}))

	err = s.Update("D1", Record{"D1", "Alice", "1 Main Street, Springfield"})
	require.ErrorIs(t, err, dberr.ErrRecordTooLarge)
	rec, err = s.FindByKey("D1")
	require.NoError(t, err)
	require.Equal(t, Record{"D1", "Alice", "1 Main St"}, rec)

	require.ErrorIs(t, s.Update("D9", Record{"D9", "X", "y"}), dberr.ErrNotFound)
	require.ErrorIs(t, s.Update("D1", Record{"D2", "X", "y"}), dberr.ErrValidation)
}

type keySet map[string]bool

func (k keySet) Contains(key string) bool { return k[key] }

func TestStash_ReferenceCheck(t *testing.T) {
	s := NewStash(Schema{
		Name:      "appointments",
		Fields:    []Field{{Name: "id", MaxLen: 15}, {Name: "date", MaxLen: 30}, {Name: "doctorid", MaxLen: 15}},
		Secondary: 2,
	}, FilesIn(t.TempDir(), "appointments"), freelist.LIFO, getTestLogger())
	s.Attach(ReferenceCheck(2, keySet{"D1": true}))

	require.NoError(t, s.Add(Record{"A1", "2024-01-01", "D1"}))
	size := dataSize(t, s)

	require.ErrorIs(t, s.Add(Record{"A2", "2024-01-02", "D9"}), dberr.ErrUnknownReference)
	require.Equal(t, size, dataSize(t, s))
	require.False(t, s.Contains("A2"))
	recs, err := s.FindByAttribute("D9")
	require.NoError(t, err)
	require.Empty(t, recs)

	require.ErrorIs(t, s.Update("A1", Record{"A1", "2024-01-01", "D9"}), dberr.ErrUnknownReference)
}

func TestStash_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	files := FilesIn(dir, testSchema.Name)

	s := NewStash(testSchema, files, freelist.LIFO, getTestLogger())
	require.NoError(t, s.Add(Record{"D1", "Alice", "1 Main St"}))
	require.NoError(t, s.Add(Record{"D2", "Bob", "2 Oak Ave"}))
	require.NoError(t, s.Add(Record{"D3", "Bob", "3 Elm"}))
	require.NoError(t, s.Delete("D1"))
	require.NoError(t, s.Save())

	loaded := NewStash(testSchema, files, freelist.LIFO, getTestLogger())
	require.NoError(t, loaded.Load())
	require.Equal(t, s.Keys(), loaded.Keys())
	require.Equal(t, s.FreeSlots(), loaded.FreeSlots())

	recs, err := loaded.FindByAttribute("Bob")
	require.NoError(t, err)
	require.Equal(t, []Record{{"D2", "Bob", "2 Oak Ave"}, {"D3", "Bob", "3 Elm"}}, recs)
}

func TestStash_LoadEmpty(t *testing.T) {
	s := newTestStash(t, freelist.LIFO)
	require.NoError(t, s.Load())
	require.Zero(t, s.Len())
}

func TestStash_LoadCorruptKeepsState(t *testing.T) {
	s := newTestStash(t, freelist.LIFO)
	require.NoError(t, s.Add(Record{"D1", "Alice", "1 Main St"}))
	require.NoError(t, os.WriteFile(s.Files().Primary, []byte("D1|notanumber\n"), 0644))

	require.ErrorIs(t, s.Load(), dberr.ErrDecode)
	require.True(t, s.Contains("D1"))
}

func TestStash_Rebuild(t *testing.T) {
	dir := t.TempDir()
	files := FilesIn(dir, testSchema.Name)

	s := NewStash(testSchema, files, freelist.LIFO, getTestLogger())
	require.NoError(t, s.Add(Record{"D2", "Bob", "2 Oak Ave"}))
	require.NoError(t, s.Add(Record{"D1", "Alice", "1 Main St"}))
	require.NoError(t, s.Add(Record{"D3", "Cy", "3 Elm"}))
	require.NoError(t, s.Delete("D2"))

	// no index files saved, Load falls back to the data file
	rebuilt := NewStash(testSchema, files, freelist.LIFO, getTestLogger())
	require.NoError(t, rebuilt.Load())
	require.Equal(t, []string{"D1", "D3"}, rebuilt.Keys())
	require.Equal(t, s.FreeSlots(), rebuilt.FreeSlots())

	recs, err := rebuilt.FindByAttribute("Cy")
	require.NoError(t, err)
	require.Equal(t, []Record{{"D3", "Cy", "3 Elm"}}, recs)
}

func TestStash_RandomOps(t *testing.T) {
	s := newTestStash(t, freelist.LIFO)
	rnd := rand.New(rand.NewSource(7))
	live := map[string]Record{}

	for i := 0; i < 500; i++ {
		key := "K" + strconv.Itoa(rnd.Intn(60))
		switch rnd.Intn(3) {
		case 0, 1:
			rec := Record{key, "n" + strconv.Itoa(rnd.Intn(5)), "addr" + strconv.Itoa(rnd.Intn(1000))}
			err := s.Add(rec)
			if _, ok := live[key]; ok {
				require.ErrorIs(t, err, dberr.ErrDuplicateKey)
				continue
			}
			require.NoError(t, err)
			live[key] = rec
		case 2:
			err := s.Delete(key)
			if _, ok := live[key]; !ok {
				require.ErrorIs(t, err, dberr.ErrNotFound)
				continue
			}
			require.NoError(t, err)
			delete(live, key)
		}
		require.True(t, s.PrimarySorted())
	}

	require.Equal(t, len(live), s.Len())
	for key, want := range live {
		got, err := s.FindByKey(key)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}
