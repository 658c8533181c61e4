package batch

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// ErrArchiveClosed is returned by Add after Close.
var ErrArchiveClosed = errors.New("archive already closed")

// Archive collects generated documents and writes them as one zip. It is safe
// for concurrent use. Entries are buffered until Close so a name added twice
// is written once, with the last content.
type Archive struct {
	mu       sync.Mutex
	w        io.Writer
	modified time.Time
	entries  map[string][]byte
	closed   bool
}

// NewArchive returns an archive that will be written to w on Close.
func NewArchive(w io.Writer) *Archive {
	return &Archive{
		w:        w,
		modified: time.Now(),
		entries:  make(map[string][]byte),
	}
}

// Add stores data under name, replacing a previous entry of the same name.
// It reports whether an entry was replaced.
func (a *Archive) Add(name string, data []byte) (replaced bool, err error) {
	if name == "" {
		return false, errors.New("empty archive entry name")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false, ErrArchiveClosed
	}
	_, replaced = a.entries[name]
	a.entries[name] = data
	return replaced, nil
}

// Len returns the number of distinct entries.
func (a *Archive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Names returns the entry names in archive order.
func (a *Archive) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.names()
}

func (a *Archive) names() []string {
	names := make([]string, 0, len(a.entries))
	for n := range a.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close writes the zip, entries sorted by name. It does not close the
// underlying writer.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrArchiveClosed
	}
	a.closed = true

	zw := zip.NewWriter(a.w)
	for _, name := range a.names() {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: a.modified,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := fw.Write(a.entries[name]); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}
