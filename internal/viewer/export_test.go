package viewer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"

	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	"github.com/komunitas-inovasi/komunitas/internal/mocks"
	"github.com/komunitas-inovasi/komunitas/internal/testutil"
)

const uploads = "http://backend.test/pendaftar/uploads/"

func threeRegistrants() []model.Registrant {
	return []model.Registrant{
		testutil.NewRegistrant("1").WithName("Andi Saputra").WithAttachment(uploads + "a.pdf").Build(),
		testutil.NewRegistrant("2").WithName("Budi Santoso").WithAttachment(uploads + "b.jpg").Build(),
		testutil.NewRegistrant("3").WithName("Citra Lestari").Build(),
	}
}

func zipEntries(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(content)
	}
	return out
}

func TestSpreadsheetRows(t *testing.T) {
	rows := SpreadsheetRows(threeRegistrants(), "Tidak ada")

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "Andi Saputra", "pendaftar1@example.com", "+6281234567890", "a.pdf"}, rows[0])
	attachments := []string{rows[0][4], rows[1][4], rows[2][4]}
	assert.Equal(t, []string{"a.pdf", "b.jpg", "Tidak ada"}, attachments)
}

func TestViewer_ExportSpreadsheet_WholeCollection(t *testing.T) {
	records := append(threeRegistrants(), testutil.Registrants(20)...)
	v, _ := loadedViewer(t, records)
	require.NoError(t, v.GoToPage(2))

	export, err := v.ExportSpreadsheet(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Pendaftar_Komunitas_Inovasi_2025-06-03T13-37-00-000Z.xlsx", export.Filename)
	assert.Equal(t, 23, export.Entries)

	f, err := excelize.OpenReader(bytes.NewReader(export.Data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Pendaftar")
	require.NoError(t, err)
	require.Len(t, rows, 24, "header plus every record, not only the current page")
	assert.Equal(t, []string{"ID", "Nama Lengkap", "Email", "Nomor Telepon", "Dokumen"}, rows[0])
	assert.Equal(t, "a.pdf", rows[1][4])
	assert.Equal(t, "b.jpg", rows[2][4])
	assert.Equal(t, "Tidak ada", rows[3][4])
}

func TestViewer_ExportSpreadsheet_CustomLabels(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockRegistrantSource(ctrl)
	source.EXPECT().FetchRegistrants(gomock.Any(), testToken).Return(threeRegistrants(), nil)

	v, err := New(source, Options{
		Logger: discardLogger(),
		Labels: Labels{
			Sheet:  "Registrants",
			Header: [5]string{"ID", "Full name", "Email", "Phone", "Document"},
			None:   "None",
		},
	})
	require.NoError(t, err)
	require.NoError(t, v.LoadRecords(context.Background(), testToken))

	export, err := v.ExportSpreadsheet(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(export.Data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Registrants")
	require.NoError(t, err)
	assert.Equal(t, "None", rows[3][4])
}

func TestViewer_ExportSpreadsheet_EmptyCollection(t *testing.T) {
	v, _ := loadedViewer(t, []model.Registrant{})

	export, err := v.ExportSpreadsheet(context.Background())
	require.ErrorIs(t, err, ErrExportUnavailable)
	assert.Nil(t, export)
}

func TestViewer_ExportArchive_SkipsFailedFetch(t *testing.T) {
	records := []model.Registrant{
		testutil.NewRegistrant("1").WithAttachment(uploads + "a.pdf").Build(),
		testutil.NewRegistrant("2").WithAttachment(uploads + "b.jpg").Build(),
		testutil.NewRegistrant("3").WithAttachment(uploads + "c.png").Build(),
		testutil.NewRegistrant("4").Build(),
	}
	v, source := loadedViewer(t, records)

	source.EXPECT().FetchAttachment(gomock.Any(), uploads+"a.pdf", testToken).Return([]byte("A"), nil)
	source.EXPECT().FetchAttachment(gomock.Any(), uploads+"b.jpg", testToken).Return(nil, errors.New("404 not found"))
	source.EXPECT().FetchAttachment(gomock.Any(), uploads+"c.png", testToken).Return([]byte("C"), nil)

	export, err := v.ExportAttachmentsArchive(context.Background(), testToken)
	require.NoError(t, err)

	assert.Equal(t, "Bukti_Transfer_2025-06-03T13-37-00-000Z.zip", export.Filename)
	assert.Equal(t, "application/zip", export.ContentType)
	assert.Equal(t, 2, export.Entries)
	assert.Equal(t, 1, export.Skipped)
	assert.Equal(t, map[string]string{"a.pdf": "A", "c.png": "C"}, zipEntries(t, export.Data))
}

func TestViewer_ExportArchive_AllFetchesFailStillProducesArchive(t *testing.T) {
	records := []model.Registrant{
		testutil.NewRegistrant("1").WithAttachment(uploads + "a.pdf").Build(),
	}
	v, source := loadedViewer(t, records)
	source.EXPECT().FetchAttachment(gomock.Any(), gomock.Any(), testToken).Return(nil, errors.New("timeout"))

	export, err := v.ExportAttachmentsArchive(context.Background(), testToken)
	require.NoError(t, err)
	assert.Zero(t, export.Entries)
	assert.Empty(t, zipEntries(t, export.Data))
}

func TestViewer_ExportArchive_BoundedConcurrency(t *testing.T) {
	const limit = 3
	records := make([]model.Registrant, 0, 12)
	for _, r := range testutil.Registrants(12) {
		url := uploads + r.ID + ".pdf"
		r.Attachment = &url
		records = append(records, r)
	}

	ctrl := gomock.NewController(t)
	source := mocks.NewMockRegistrantSource(ctrl)
	source.EXPECT().FetchRegistrants(gomock.Any(), testToken).Return(records, nil)

	var inFlight, peak atomic.Int32
	source.EXPECT().FetchAttachment(gomock.Any(), gomock.Any(), testToken).Times(12).DoAndReturn(
		func(_ context.Context, _ string, _ string) ([]byte, error) {
			cur := inFlight.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return []byte("x"), nil
		})

	v, err := New(source, Options{Logger: discardLogger(), AttachmentConcurrency: limit})
	require.NoError(t, err)
	require.NoError(t, v.LoadRecords(context.Background(), testToken))

	export, err := v.ExportAttachmentsArchive(context.Background(), testToken)
	require.NoError(t, err)
	assert.Equal(t, 12, export.Entries)
	assert.LessOrEqual(t, peak.Load(), int32(limit))
}

func TestViewer_ExportArchive_Canceled(t *testing.T) {
	records := []model.Registrant{
		testutil.NewRegistrant("1").WithAttachment(uploads + "a.pdf").Build(),
	}
	v, source := loadedViewer(t, records)

	ctx, cancel := context.WithCancel(context.Background())
	source.EXPECT().FetchAttachment(gomock.Any(), gomock.Any(), testToken).DoAndReturn(
		func(ctx context.Context, _ string, _ string) ([]byte, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		}).AnyTimes()

	export, err := v.ExportAttachmentsArchive(ctx, testToken)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, export)
}

// failingWriter accepts limit bytes and then fails every write.
type failingWriter struct {
	limit   int
	written int
}

var errDiskFull = errors.New("disk full")

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.limit {
		return 0, errDiskFull
	}
	w.written += len(p)
	return len(p), nil
}

func TestViewer_ExportArchive_WriteFailureAbortsExport(t *testing.T) {
	for _, limit := range []int{0, 64} {
		ctrl := gomock.NewController(t)
		source := mocks.NewMockRegistrantSource(ctrl)
		source.EXPECT().FetchRegistrants(gomock.Any(), testToken).Return(threeRegistrants(), nil)
		source.EXPECT().FetchAttachment(gomock.Any(), gomock.Any(), testToken).
			Return(bytes.Repeat([]byte("x"), 8<<10), nil).Times(2)

		v, err := New(source, Options{
			Logger:        discardLogger(),
			Clock:         testutil.FixedTimeFunc(testutil.TestTime()),
			ArchiveWriter: func(io.Writer) io.Writer { return &failingWriter{limit: limit} },
		})
		require.NoError(t, err)
		require.NoError(t, v.LoadRecords(context.Background(), testToken))

		export, err := v.ExportAttachmentsArchive(context.Background(), testToken)
		var buildErr *ArchiveBuildError
		require.ErrorAs(t, err, &buildErr, "limit %d", limit)
		assert.ErrorIs(t, err, errDiskFull)
		assert.Nil(t, export)
		assert.True(t, v.Snapshot().ExportsEnabled, "a failed export leaves the viewer usable")
	}
}
