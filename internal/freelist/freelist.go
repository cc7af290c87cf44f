// Package freelist pool of tombstoned slot offsets available for reuse
package freelist

import (
	"fmt"
	"strings"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
)

// Policy how Acquire picks a candidate slot
type Policy int

const (
	// LIFO inspects only the most recently freed slot
	LIFO Policy = iota
	// FirstFit scans the pool oldest first and takes the first slot that fits
	FirstFit
)

// ParsePolicy "lifo" or "first-fit"
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lifo":
		return LIFO, nil
	case "first-fit", "firstfit":
		return FirstFit, nil
	}
	return LIFO, dberr.Validation("unknown free space policy %q", name)
}

func (p Policy) String() string {
	switch p {
	case LIFO:
		return "lifo"
	case FirstFit:
		return "first-fit"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// CapacityFunc reads the stored capacity of the slot at offset
type CapacityFunc func(offset int64) (int, error)

// List unordered pool of free offsets, kept in release order.
//
// IMPORTANT: does not provide thread safety
type List struct {
	policy  Policy
	offsets []int64
}

func New(policy Policy) *List {
	return &List{policy: policy}
}

func (l *List) Policy() Policy {
	return l.policy
}

// Acquire takes a slot whose capacity is at least required.
// ok is false when nothing fits; the pool is unchanged then and the caller appends.
func (l *List) Acquire(required int, capacity CapacityFunc) (offset int64, slotCap int, ok bool, err error) {
	if len(l.offsets) == 0 {
		return 0, 0, false, nil
	}

	switch l.policy {
	case FirstFit:
		for i, off := range l.offsets {
			c, err := capacity(off)
			if err != nil {
				return 0, 0, false, fmt.Errorf("acquire: offset %d: %w", off, err)
			}
			if c >= required {
				l.offsets = append(l.offsets[:i], l.offsets[i+1:]...)
				return off, c, true, nil
			}
		}
		return 0, 0, false, nil
	default:
		last := len(l.offsets) - 1
		off := l.offsets[last]
		c, err := capacity(off)
		if err != nil {
			return 0, 0, false, fmt.Errorf("acquire: offset %d: %w", off, err)
		}
		if c < required {
			return 0, 0, false, nil
		}
		l.offsets = l.offsets[:last]
		return off, c, true, nil
	}
}

// Release puts offset back into the pool
func (l *List) Release(offset int64) {
	l.offsets = append(l.offsets, offset)
}

// Len returns number of free slots
func (l *List) Len() int {
	return len(l.offsets)
}

// Offsets returns a copy of the pool in release order
func (l *List) Offsets() []int64 {
	out := make([]int64, len(l.offsets))
	copy(out, l.offsets)
	return out
}

// Reset replaces the pool
func (l *List) Reset(offsets []int64) {
	l.offsets = append([]int64(nil), offsets...)
}
