// Package archive bundles downloaded files into a single zip archive.
package archive

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// ContentType is the media type of the written archive.
const ContentType = "application/zip"

const fallbackName = "attachment"

// Builder writes zip entries to an underlying writer. Entry names are flattened to their base name
// and made unique within the archive. Builder is not safe for concurrent use.
type Builder struct {
	zw       *zip.Writer
	modified time.Time
	used     map[string]bool
	entries  int
	closed   bool
}

// NewBuilder returns a Builder writing to w. Every entry gets modified as its timestamp.
func NewBuilder(w io.Writer, modified time.Time) *Builder {
	return &Builder{
		zw:       zip.NewWriter(w),
		modified: modified,
		used:     make(map[string]bool),
	}
}

// Add writes one entry and returns the name it was stored under.
func (b *Builder) Add(name string, data []byte) (string, error) {
	if b.closed {
		return "", errors.New("archive already closed")
	}

	stored := b.uniqueName(sanitizeName(name))
	fw, err := b.zw.CreateHeader(&zip.FileHeader{
		Name:     stored,
		Method:   zip.Deflate,
		Modified: b.modified,
	})
	if err != nil {
		return "", fmt.Errorf("create entry %q: %w", stored, err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("write entry %q: %w", stored, err)
	}

	b.used[stored] = true
	b.entries++
	return stored, nil
}

// Entries returns the number of entries written so far.
func (b *Builder) Entries() int { return b.entries }

// Close writes the central directory. The archive is incomplete until Close returns nil.
func (b *Builder) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

// uniqueName appends " (n)" before the extension until the name is unused: a.pdf, a (2).pdf, ...
func (b *Builder) uniqueName(name string) string {
	if !b.used[name] {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !b.used[candidate] {
			return candidate
		}
	}
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = path.Base(name)
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "/" {
		return fallbackName
	}
	return name
}
