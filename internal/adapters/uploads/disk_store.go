// Package uploads stores user uploads on the local filesystem and serves them under a public prefix.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wailsapp/mimetype"

	"github.com/komunitas-inovasi/komunitas/internal/core"
	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
)

const (
	// DefaultPublicPrefix is the URL path under which stored files are served.
	DefaultPublicPrefix = "/uploads/"
	// DefaultMaxBytes caps a single upload.
	DefaultMaxBytes int64 = 10 << 20

	sniffLen = 3072
)

// ImageTypes are the raster image types accepted for listing photos. SVG is left out because it can
// carry script.
var ImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var _ core.UploadStore = (*DiskStore)(nil)

// Options configures a DiskStore.
type Options struct {
	Dir          string
	PublicPrefix string
	MaxBytes     int64
	// AllowedTypes restricts uploads by sniffed MIME type. Entries ending in "/" match a type prefix
	// ("image/"). Empty allows everything.
	AllowedTypes []string
	Clock        func() time.Time
}

// DiskStore writes uploads as <unix-millis><ext> files into a single directory.
type DiskStore struct {
	dir      string
	prefix   string
	maxBytes int64
	allowed  []string
	clock    func() time.Time
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(opts Options) (*DiskStore, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("uploads directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	prefix := opts.PublicPrefix
	if prefix == "" {
		prefix = DefaultPublicPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &DiskStore{dir: dir, prefix: prefix, maxBytes: maxBytes, allowed: opts.AllowedTypes, clock: clock}, nil
}

// Dir returns the directory files are written to.
func (s *DiskStore) Dir() string { return s.dir }

// PublicPrefix returns the URL path prefix of stored files.
func (s *DiskStore) PublicPrefix() string { return s.prefix }

// Save stores content and returns its public path. The extension always comes from the sniffed
// content type, never from originalName, which only appears in error messages.
func (s *DiskStore) Save(ctx context.Context, originalName string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", apperrors.ValidationField("photo", "uploaded file is empty")
	}

	detected := mimetype.Detect(head)
	if !s.typeAllowed(detected.String()) {
		return "", apperrors.ValidationField("photo",
			fmt.Sprintf("%s: file type %s is not allowed", filepath.Base(originalName), detected.String()))
	}

	ext := detected.Extension()
	if ext == "" {
		ext = ".bin"
	}

	f, name, err := s.create(ext)
	if err != nil {
		return "", err
	}

	written, copyErr := io.Copy(f, io.LimitReader(io.MultiReader(bytes.NewReader(head), content), s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", fmt.Errorf("write upload: %w", copyErr)
	case written > s.maxBytes:
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", apperrors.ValidationField("photo", fmt.Sprintf("file exceeds %d bytes", s.maxBytes))
	case closeErr != nil:
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", fmt.Errorf("close upload: %w", closeErr)
	}

	return s.prefix + name, nil
}

// create opens a new file named after the current time, moving forward a millisecond on collision.
func (s *DiskStore) create(ext string) (*os.File, string, error) {
	millis := s.clock().UnixMilli()
	for range 100 {
		name := strconv.FormatInt(millis, 10) + ext
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create upload file: %w", err)
		}
		millis++
	}
	return nil, "", errors.New("create upload file: too many name collisions")
}

func (s *DiskStore) typeAllowed(detected string) bool {
	if len(s.allowed) == 0 {
		return true
	}
	for _, a := range s.allowed {
		if strings.HasSuffix(a, "/") && strings.HasPrefix(detected, a) {
			return true
		}
		if mimetype.EqualsAny(detected, a) {
			return true
		}
	}
	return false
}

// Remove deletes a stored file by public path. Missing files and foreign paths are ignored.
func (s *DiskStore) Remove(_ context.Context, publicPath string) error {
	name, ok := s.nameFor(publicPath)
	if !ok {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// List returns the stored files ordered by public path.
func (s *DiskStore) List(ctx context.Context) ([]model.StoredUpload, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read uploads directory: %w", err)
	}

	out := make([]model.StoredUpload, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.Type().IsRegular() {
			continue
		}
		info, infoErr := e.Info()
		if infoErr != nil {
			continue
		}
		out = append(out, model.StoredUpload{
			PublicPath: s.prefix + e.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublicPath < out[j].PublicPath })
	return out, nil
}

func (s *DiskStore) nameFor(publicPath string) (string, bool) {
	if !strings.HasPrefix(publicPath, s.prefix) {
		return "", false
	}
	name := path.Base(strings.TrimPrefix(publicPath, s.prefix))
	if name == "." || name == "/" || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name, true
}
