package freelist

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

// Load replaces the pool with the offsets of path, one per line.
// A missing file leaves an empty pool.
func (l *List) Load(path string) (err error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.offsets = nil
			return nil
		}
		return dberr.IO("open", path, err)
	}
	defer func() {
		err = multierr.Append(err, textfile.Close(file))
	}()

	var offsets []int64
	scanner := bufio.NewScanner(file)
	var pos int64
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		line := pos
		pos += int64(len(scanner.Text())) + 1
		if text == "" {
			continue
		}
		off, perr := strconv.ParseInt(text, 10, 64)
		if perr != nil || off < 0 {
			return fmt.Errorf("freelist load: %s: %w", path, dberr.Decode(line, "malformed offset %q", text))
		}
		offsets = append(offsets, off)
	}
	if err := scanner.Err(); err != nil {
		return dberr.IO("read", path, err)
	}

	l.offsets = offsets
	return nil
}

// Save rewrites path with one offset per line
func (l *List) Save(path string) error {
	return textfile.Rewrite(path, func(w *bufio.Writer) error {
		for _, off := range l.offsets {
			if _, err := fmt.Fprintf(w, "%d\n", off); err != nil {
				return err
			}
		}
		return nil
	})
}
