// Package textfile whole-file rewrites of the line based index files
package textfile

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
)

// Rewrite replaces path with the lines produced by fill.
//
// The content goes to a uniquely named temp file next to path which is then
// renamed over path, so a failed fill leaves the previous file in place.
func Rewrite(path string, fill func(w *bufio.Writer) error) (err error) {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.New().String()+".tmp")

	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return dberr.IO("create", tmp, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	w := bufio.NewWriter(file)
	if err := fill(w); err != nil {
		return multierr.Append(dberr.IO("write", tmp, err), Close(file))
	}
	if err := w.Flush(); err != nil {
		return multierr.Append(dberr.IO("flush", tmp, err), Close(file))
	}
	if err := Close(file); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		return dberr.IO("rename", path, err)
	}
	return nil
}

// Close closes file, wraps the failure as an io error
func Close(file *os.File) error {
	if err := file.Close(); err != nil {
		return dberr.IO("close", file.Name(), err)
	}
	return nil
}

// Exists reports whether path is on disk
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
