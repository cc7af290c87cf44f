package stashdb

import (
	"fmt"
	"sort"
	"strings"
)

// Report differences between the saved index files and the data file
type Report struct {
	Name     string
	Records  int
	Free     int
	Problems []string
}

func (r Report) OK() bool {
	return len(r.Problems) == 0
}

func (r Report) String() string {
	if r.OK() {
		return fmt.Sprintf("%s: ok, %d records, %d free slots", r.Name, r.Records, r.Free)
	}
	return fmt.Sprintf("%s: %d problems\n  %s", r.Name, len(r.Problems), strings.Join(r.Problems, "\n  "))
}

// Verify rebuilds the indexes from the data file and compares them with the
// saved index files. The stash itself is not touched.
func (s *Stash) Verify() (Report, error) {
	saved, err := s.readIndexes()
	if err != nil {
		return Report{}, fmt.Errorf("verify %s: %w", s.schema.Name, err)
	}
	scanned, err := s.scanData()
	if err != nil {
		return Report{}, fmt.Errorf("verify %s: %w", s.schema.Name, err)
	}

	r := Report{Name: s.schema.Name, Records: scanned.primary.Len(), Free: scanned.free.Len()}
	problem := func(format string, args ...any) {
		r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
	}

	want := map[string]int64{}
	for _, e := range scanned.primary.Entries() {
		want[e.Key] = e.Offset
	}
	for _, e := range saved.primary.Entries() {
		off, ok := want[e.Key]
		switch {
		case !ok:
			problem("primary: key %q has no live slot", e.Key)
		case off != e.Offset:
			problem("primary: key %q at offset %d, data file has it at %d", e.Key, e.Offset, off)
		}
		delete(want, e.Key)
	}
	for _, key := range sortedKeys(want) {
		problem("primary: key %q missing, live slot at %d", key, want[key])
	}

	buckets := map[string]string{}
	scanned.secondary.Walk(func(value string, keys []string) bool {
		buckets[value] = joinSorted(keys)
		return true
	})
	saved.secondary.Walk(func(value string, keys []string) bool {
		got := joinSorted(keys)
		if buckets[value] != got {
			problem("secondary: %q lists [%s], data file has [%s]", value, got, buckets[value])
		}
		delete(buckets, value)
		return true
	})
	for _, value := range sortedKeys(buckets) {
		problem("secondary: %q missing, data file has [%s]", value, buckets[value])
	}

	if a, b := joinOffsets(saved.free.Offsets()), joinOffsets(scanned.free.Offsets()); a != b {
		problem("free list: [%s], tombstones at [%s]", a, b)
	}
	return r, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinSorted(keys []string) string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return strings.Join(out, ",")
}

func joinOffsets(offsets []int64) string {
	sorted := append([]int64(nil), offsets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, off := range sorted {
		parts[i] = fmt.Sprint(off)
	}
	return strings.Join(parts, ",")
}
