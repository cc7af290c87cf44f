package recordfile

import (
	"bufio"
	"errors"
	"io"
	"os"

	"go.uber.org/multierr"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
	"github.com/S0me0neR0man/clinicstash/internal/textfile"
)

// File a data file made of slots.
//
// Every method opens the file, does its work and closes it again, no handle
// is kept between calls.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

// Exists reports whether the data file is on disk
func (f *File) Exists() bool {
	return textfile.Exists(f.path)
}

// Capacity reads the length prefix of the slot at off
func (f *File) Capacity(off int64) (capacity int, err error) {
	file, err := os.Open(f.path)
	if err != nil {
		return 0, dberr.IO("open", f.path, err)
	}
	defer func() {
		err = multierr.Append(err, textfile.Close(file))
	}()

	return readPrefix(file, off, f.path)
}

// ReadSlot reads the whole slot at off
func (f *File) ReadSlot(off int64) (slot []byte, err error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, dberr.IO("open", f.path, err)
	}
	defer func() {
		err = multierr.Append(err, textfile.Close(file))
	}()

	capacity, err := readPrefix(file, off, f.path)
	if err != nil {
		return nil, err
	}
	slot = make([]byte, SlotSize(capacity))
	if _, err := file.ReadAt(slot, off); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, dberr.Decode(off, "truncated slot")
		}
		return nil, dberr.IO("read", f.path, err)
	}
	return slot, nil
}

// Append writes slot at the end of the file, returns its offset
func (f *File) Append(slot []byte) (off int64, err error) {
	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return 0, dberr.IO("open", f.path, err)
	}
	defer func() {
		err = multierr.Append(err, textfile.Close(file))
	}()

	off, err = file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, dberr.IO("seek", f.path, err)
	}
	if _, err := file.Write(slot); err != nil {
		return 0, dberr.IO("write", f.path, err)
	}
	return off, nil
}

// WriteAt overwrites the slot at off
func (f *File) WriteAt(off int64, slot []byte) (err error) {
	file, err := os.OpenFile(f.path, os.O_WRONLY, 0644)
	if err != nil {
		return dberr.IO("open", f.path, err)
	}
	defer func() {
		err = multierr.Append(err, textfile.Close(file))
	}()

	if _, err := file.WriteAt(slot, off); err != nil {
		return dberr.IO("write", f.path, err)
	}
	return nil
}

// MarkDeleted writes the tombstone terminator of the slot at off.
// The prefix and payload stay intact so the slot still reports its capacity.
func (f *File) MarkDeleted(off int64, capacity int) error {
	return f.WriteAt(off+int64(PrefixLen+capacity), []byte{Tombstone})
}

// Scan calls fn for every slot in file order
func (f *File) Scan(fn func(off int64, slot []byte) error) (err error) {
	file, err := os.Open(f.path)
	if err != nil {
		return dberr.IO("open", f.path, err)
	}
	defer func() {
		err = multierr.Append(err, textfile.Close(file))
	}()

	r := bufio.NewReader(file)
	prefix := make([]byte, PrefixLen)
	var off int64
	for {
		if _, err := io.ReadFull(r, prefix); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return dberr.Decode(off, "truncated length prefix")
			}
			return dberr.IO("read", f.path, err)
		}
		capacity, err := ParsePrefix(prefix, off)
		if err != nil {
			return err
		}
		slot := make([]byte, SlotSize(capacity))
		copy(slot, prefix)
		if _, err := io.ReadFull(r, slot[PrefixLen:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return dberr.Decode(off, "truncated slot")
			}
			return dberr.IO("read", f.path, err)
		}
		if err := fn(off, slot); err != nil {
			return err
		}
		off += int64(len(slot))
	}
}

func readPrefix(file *os.File, off int64, path string) (int, error) {
	prefix := make([]byte, PrefixLen)
	if _, err := file.ReadAt(prefix, off); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, dberr.Decode(off, "offset past end of file")
		}
		return 0, dberr.IO("read", path, err)
	}
	return ParsePrefix(prefix, off)
}
