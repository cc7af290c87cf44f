package secondaryindex

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
	"github.com/S0me0neR0man/clinicstash/internal/textfile"
)

// Load replaces the index with the `value|key1|key2|...` lines of path.
// A missing file leaves an empty index.
func (idx *Index) Load(path string) (err error) {
	const msg = "secondaryindex load:"

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			idx.Reset()
			return nil
		}
		return dberr.IO("open", path, err)
	}
	defer func() {
		err = multierr.Append(err, textfile.Close(file))
	}()

	loaded := New()
	scanner := bufio.NewScanner(file)
	var pos int64
	for scanner.Scan() {
		text := scanner.Text()
		line := pos
		pos += int64(len(text)) + 1
		if text == "" {
			continue
		}
		parts := strings.Split(text, "|")
		if len(parts) < 2 {
			return fmt.Errorf("%s %s: %w", msg, path, dberr.Decode(line, "bucket without keys %q", text))
		}
		for _, key := range parts[1:] {
			if key == "" {
				return fmt.Errorf("%s %s: %w", msg, path, dberr.Decode(line, "empty key in %q", text))
			}
			loaded.Insert(parts[0], key)
		}
	}
	if err := scanner.Err(); err != nil {
		return dberr.IO("read", path, err)
	}

	idx.tree = loaded.tree
	return nil
}

// Save rewrites path with one line per bucket
func (idx *Index) Save(path string) error {
	return textfile.Rewrite(path, func(w *bufio.Writer) error {
		var err error
		idx.Walk(func(value string, keys []string) bool {
			_, err = fmt.Fprintf(w, "%s|%s\n", value, strings.Join(keys, "|"))
			return err == nil
		})
		return err
	})
}
