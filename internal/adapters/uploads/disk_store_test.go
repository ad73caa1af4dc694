package uploads

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
	"github.com/komunitas-inovasi/komunitas/internal/testutil"
)

// A 1x1 transparent PNG.
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

func newTestStore(t *testing.T, opts Options) *DiskStore {
	t.Helper()
	opts.Dir = t.TempDir()
	if opts.Clock == nil {
		opts.Clock = testutil.FixedTimeFunc(testutil.TestTime())
	}
	s, err := NewDiskStore(opts)
	require.NoError(t, err)
	return s
}

func TestNewDiskStore_RequiresDir(t *testing.T) {
	_, err := NewDiskStore(Options{})
	assert.Error(t, err)
}

func TestDiskStore_SaveNamesByTime(t *testing.T) {
	s := newTestStore(t, Options{})
	ctx := context.Background()
	millis := testutil.TestTime().UnixMilli()

	first, err := s.Save(ctx, "Rumah Depan.PNG", bytes.NewReader(tinyPNG))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/"+itoa(millis)+".png", first)

	second, err := s.Save(ctx, "lain.png", bytes.NewReader(tinyPNG))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/"+itoa(millis+1)+".png", second, "collision moves to the next millisecond")

	data, err := os.ReadFile(filepath.Join(s.Dir(), itoa(millis)+".png"))
	require.NoError(t, err)
	assert.Equal(t, tinyPNG, data)
}

func TestDiskStore_SaveUsesSniffedExtension(t *testing.T) {
	s := newTestStore(t, Options{})

	p, err := s.Save(context.Background(), "photo", bytes.NewReader(tinyPNG))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p, ".png"), p)
}

func TestDiskStore_SaveIgnoresClientExtension(t *testing.T) {
	s := newTestStore(t, Options{AllowedTypes: ImageTypes})
	ctx := context.Background()
	polyglot := "GIF89a\x01\x00\x01\x00\x00\x00\x00;<script>alert(document.cookie)</script>"

	tests := []struct {
		name     string
		filename string
		content  []byte
		wantExt  string
	}{
		{name: "html name on a gif", filename: "x.html", content: []byte(polyglot), wantExt: ".gif"},
		{name: "svg name on a png", filename: "foto.svg", content: tinyPNG, wantExt: ".png"},
		{name: "jpg name on a png", filename: "foto.jpg", content: tinyPNG, wantExt: ".png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := s.Save(ctx, tt.filename, bytes.NewReader(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, filepath.Ext(p))
			assert.False(t, strings.HasSuffix(p, ".html"))
		})
	}
}

func TestDiskStore_SaveRejectsSVG(t *testing.T) {
	s := newTestStore(t, Options{AllowedTypes: ImageTypes})
	svg := `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`

	_, err := s.Save(context.Background(), "logo.png", strings.NewReader(svg))
	assert.True(t, apperrors.IsValidation(err))
}

func TestDiskStore_SaveRejects(t *testing.T) {
	s := newTestStore(t, Options{MaxBytes: 32, AllowedTypes: []string{"image/"}})
	ctx := context.Background()

	_, err := s.Save(ctx, "notes.txt", strings.NewReader("just some text"))
	assert.True(t, apperrors.IsValidation(err), "non-image rejected")

	_, err = s.Save(ctx, "big.png", bytes.NewReader(tinyPNG))
	assert.True(t, apperrors.IsValidation(err), "oversized rejected")

	_, err = s.Save(ctx, "empty.png", bytes.NewReader(nil))
	assert.True(t, apperrors.IsValidation(err))

	files, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files, "rejected uploads leave nothing behind")
}

func TestDiskStore_ListAndRemove(t *testing.T) {
	now := testutil.TestTime()
	s := newTestStore(t, Options{Clock: func() time.Time { return now }})
	ctx := context.Background()

	a, err := s.Save(ctx, "a.png", bytes.NewReader(tinyPNG))
	require.NoError(t, err)
	now = now.Add(time.Second)
	b, err := s.Save(ctx, "b.png", bytes.NewReader(tinyPNG))
	require.NoError(t, err)

	files, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, a, files[0].PublicPath)
	assert.Equal(t, b, files[1].PublicPath)
	assert.Equal(t, int64(len(tinyPNG)), files[0].Size)

	require.NoError(t, s.Remove(ctx, a))
	require.NoError(t, s.Remove(ctx, a), "removing twice is fine")
	require.NoError(t, s.Remove(ctx, "/elsewhere/x.png"))
	require.NoError(t, s.Remove(ctx, "/uploads/../secret"))

	files, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, b, files[0].PublicPath)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
