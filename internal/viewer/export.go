package viewer

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	"github.com/komunitas-inovasi/komunitas/internal/export/archive"
	"github.com/komunitas-inovasi/komunitas/internal/export/spreadsheet"
)

const (
	spreadsheetPrefix = "Pendaftar_Komunitas_Inovasi_"
	archivePrefix     = "Bukti_Transfer_"
)

var timestampReplacer = strings.NewReplacer(":", "-", ".", "-")

// Labels are the localized strings written into exports.
type Labels struct {
	Sheet string
	// Header holds the column titles in export order:
	// identifier, name, email, phone, attachment.
	Header [5]string
	// None is written in the attachment column when a registrant has no attachment.
	None string
}

// DefaultLabels returns the Indonesian labels used by the community site.
func DefaultLabels() Labels {
	return Labels{
		Sheet:  "Pendaftar",
		Header: [5]string{"ID", "Nama Lengkap", "Email", "Nomor Telepon", "Dokumen"},
		None:   "Tidak ada",
	}
}

func (l Labels) isZero() bool {
	return l.Sheet == "" && l.None == "" && l.Header == [5]string{}
}

// Export is a generated download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
	// Entries is the number of rows (spreadsheet) or files (archive) written.
	Entries int
	// Skipped is the number of attachments left out of an archive because their fetch failed.
	Skipped int
}

// SpreadsheetRows maps registrants to export rows in the fixed column order.
func SpreadsheetRows(records []model.Registrant, none string) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		attachment := r.AttachmentFilename()
		if attachment == "" {
			attachment = none
		}
		rows = append(rows, []string{r.ID, r.Name, r.Email, r.Phone, attachment})
	}
	return rows
}

// ExportSpreadsheet writes the entire collection, independent of the current page, to an xlsx workbook.
func (v *Viewer) ExportSpreadsheet(ctx context.Context) (*Export, error) {
	records, err := v.exportable()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	rows := SpreadsheetRows(records, v.labels.None)
	if err := spreadsheet.Write(&buf, v.labels.Sheet, v.labels.Header[:], rows); err != nil {
		return nil, fmt.Errorf("build spreadsheet: %w", err)
	}

	v.logger.InfoContext(ctx, "spreadsheet exported", "rows", len(rows), "bytes", buf.Len())
	return &Export{
		Filename:    spreadsheetPrefix + v.timestamp() + ".xlsx",
		ContentType: spreadsheet.ContentType,
		Data:        buf.Bytes(),
		Entries:     len(rows),
	}, nil
}

type fetchedAttachment struct {
	name string
	data []byte
	ok   bool
}

// ExportAttachmentsArchive downloads every attachment of the collection and bundles the successful
// downloads into one zip archive, in collection order. Downloads run concurrently up to the configured
// limit. A failed download is logged and skipped without retry; only a failure to assemble the
// archive aborts the export with an *ArchiveBuildError.
func (v *Viewer) ExportAttachmentsArchive(ctx context.Context, token string) (*Export, error) {
	records, err := v.exportable()
	if err != nil {
		return nil, err
	}

	fetched, err := v.fetchAttachments(ctx, records, token)
	if err != nil {
		return nil, fmt.Errorf("export attachments: %w", err)
	}

	var buf bytes.Buffer
	b := archive.NewBuilder(v.archiveSink(&buf), v.clock())
	skipped := 0
	for _, f := range fetched {
		if !f.ok {
			skipped++
			continue
		}
		if _, addErr := b.Add(f.name, f.data); addErr != nil {
			return nil, &ArchiveBuildError{Err: addErr}
		}
	}
	if closeErr := b.Close(); closeErr != nil {
		return nil, &ArchiveBuildError{Err: closeErr}
	}

	v.logger.InfoContext(ctx, "attachment archive exported",
		"files", b.Entries(),
		"skipped", skipped,
		"bytes", buf.Len())

	return &Export{
		Filename:    archivePrefix + v.timestamp() + ".zip",
		ContentType: archive.ContentType,
		Data:        buf.Bytes(),
		Entries:     b.Entries(),
		Skipped:     skipped,
	}, nil
}

// fetchAttachments downloads attachments with a bounded worker pool. Individual failures are recorded
// as not ok; the returned error is non-nil only when ctx is done.
func (v *Viewer) fetchAttachments(
	ctx context.Context,
	records []model.Registrant,
	token string,
) ([]fetchedAttachment, error) {
	withAttachment := make([]model.Registrant, 0, len(records))
	for _, r := range records {
		if r.HasAttachment() {
			withAttachment = append(withAttachment, r)
		}
	}

	results := make([]fetchedAttachment, len(withAttachment))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)

	for i, r := range withAttachment {
		results[i].name = r.AttachmentFilename()
		url := strings.TrimSpace(*r.Attachment)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := v.source.FetchAttachment(gctx, url, token)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				fetchErr := &AttachmentFetchError{RegistrantID: r.ID, URL: url, Err: err}
				v.logger.WarnContext(gctx, "skipping attachment", "registrant_id", r.ID, "error", fetchErr)
				return nil
			}
			results[i].data = data
			results[i].ok = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (v *Viewer) timestamp() string {
	return timestampReplacer.Replace(v.clock().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
}
