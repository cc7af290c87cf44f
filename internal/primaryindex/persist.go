package primaryindex

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
	"github.com/S0me0neR0man/clinicstash/internal/textfile"
)

// Load replaces the index with the `key|offset` lines of path.
// A missing file leaves an empty index.
func (idx *Index) Load(path string) (err error) {
	const msg = "primaryindex load:"

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			idx.entries = nil
			return nil
		}
		return dberr.IO("open", path, err)
	}
	defer func() {
		err = multierr.Append(err, textfile.Close(file))
	}()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	var pos int64
	for scanner.Scan() {
		text := scanner.Text()
		line := pos
		pos += int64(len(text)) + 1
		if text == "" {
			continue
		}
		key, off, ok := strings.Cut(text, "|")
		if !ok || key == "" {
			return fmt.Errorf("%s %s: %w", msg, path, dberr.Decode(line, "malformed index line %q", text))
		}
		offset, perr := strconv.ParseInt(off, 10, 64)
		if perr != nil || offset < 0 {
			return fmt.Errorf("%s %s: %w", msg, path, dberr.Decode(line, "malformed offset %q", off))
		}
		entries = append(entries, Entry{Key: key, Offset: offset})
	}
	if err := scanner.Err(); err != nil {
		return dberr.IO("read", path, err)
	}

	if err := idx.Reset(entries); err != nil {
		return fmt.Errorf("%s %s: %w", msg, path, err)
	}
	return nil
}

// Save rewrites path with one `key|offset` line per entry
func (idx *Index) Save(path string) error {
	return textfile.Rewrite(path, func(w *bufio.Writer) error {
		for _, e := range idx.entries {
			if _, err := fmt.Fprintf(w, "%s|%d\n", e.Key, e.Offset); err != nil {
				return err
			}
		}
		return nil
	})
}
