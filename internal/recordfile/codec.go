// Package recordfile slot framing and slot I/O for the flat data files.
//
// A slot is
//
//	<4-digit capacity><payload padded with ' ' to capacity><terminator>
//
// payload is the record fields joined with '|'. The terminator is '\n' for a
// live slot and '*' for a tombstone, so marking never touches the prefix or the
// payload and a tombstoned slot still reports its capacity.
package recordfile

import (
	"fmt"
	"strings"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
)

const (
	PrefixLen   = 4
	MaxCapacity = 9999

	Delimiter = "|"
	Live      = '\n'
	Tombstone = '*'

	padByte = ' '
)

// SlotSize physical size of a slot with the given capacity
func SlotSize(capacity int) int {
	return PrefixLen + capacity + 1
}

// Encode frames fields into a new slot whose capacity equals the payload length.
func Encode(fields []string) ([]byte, error) {
	payload := strings.Join(fields, Delimiter)
	if len(payload) > MaxCapacity {
		return nil, dberr.Validation("record is %d bytes, max %d", len(payload), MaxCapacity)
	}
	return frame(payload, len(payload)), nil
}

// EncodeInto frames fields into an existing slot of the given capacity.
func EncodeInto(fields []string, capacity int) ([]byte, error) {
	payload := strings.Join(fields, Delimiter)
	if len(payload) > capacity {
		return nil, fmt.Errorf("%w: need %d bytes, slot holds %d", dberr.ErrRecordTooLarge, len(payload), capacity)
	}
	return frame(payload, capacity), nil
}

// EncodedLen payload length of fields
func EncodedLen(fields []string) int {
	n := len(fields) - 1
	if n < 0 {
		n = 0
	}
	for _, f := range fields {
		n += len(f)
	}
	return n
}

func frame(payload string, capacity int) []byte {
	buf := make([]byte, 0, SlotSize(capacity))
	buf = append(buf, fmt.Sprintf("%04d", capacity)...)
	buf = append(buf, payload...)
	for i := len(payload); i < capacity; i++ {
		buf = append(buf, padByte)
	}
	return append(buf, Live)
}

// Decode splits a whole slot read at offset into exactly n fields.
func Decode(slot []byte, n int, offset int64) (fields []string, deleted bool, err error) {
	if len(slot) < SlotSize(0) {
		return nil, false, dberr.Decode(offset, "slot is %d bytes", len(slot))
	}
	capacity, err := ParsePrefix(slot[:PrefixLen], offset)
	if err != nil {
		return nil, false, err
	}
	if len(slot) != SlotSize(capacity) {
		return nil, false, dberr.Decode(offset, "slot is %d bytes, prefix says %d", len(slot), SlotSize(capacity))
	}

	switch slot[len(slot)-1] {
	case Live:
	case Tombstone:
		deleted = true
	default:
		return nil, false, dberr.Decode(offset, "bad terminator %q", slot[len(slot)-1])
	}

	payload := strings.TrimRight(string(slot[PrefixLen:PrefixLen+capacity]), string(padByte))
	fields = strings.Split(payload, Delimiter)
	if len(fields) != n {
		return nil, deleted, dberr.Decode(offset, "expected %d fields, got %d", n, len(fields))
	}
	return fields, deleted, nil
}

// ParsePrefix reads a 4-digit capacity
func ParsePrefix(prefix []byte, offset int64) (int, error) {
	if len(prefix) != PrefixLen {
		return 0, dberr.Decode(offset, "length prefix is %d bytes", len(prefix))
	}
	capacity := 0
	for _, c := range prefix {
		if c < '0' || c > '9' {
			return 0, dberr.Decode(offset, "malformed length prefix %q", prefix)
		}
		capacity = capacity*10 + int(c-'0')
	}
	return capacity, nil
}
