// Package viewer holds a registrant collection fetched once from the community backend, slices it
// into fixed-size pages and exports the whole collection as a spreadsheet or an attachment archive.
package viewer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/komunitas-inovasi/komunitas/internal/core"
	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
)

const (
	// DefaultAttachmentConcurrency bounds concurrent attachment downloads during archive export.
	DefaultAttachmentConcurrency = 4
	maxAttachmentConcurrency     = 32
)

// Options groups optional viewer dependencies.
type Options struct {
	Labels                Labels
	AttachmentConcurrency int
	Logger                *slog.Logger
	// Clock is used for export file names. Defaults to time.Now.
	Clock func() time.Time
	// ArchiveWriter wraps the in-memory sink the attachment archive is written to. Nil writes
	// straight into the buffer.
	ArchiveWriter func(io.Writer) io.Writer
}

// Viewer is the paginated registrant table for one admin session.
// All methods are safe for concurrent use.
type Viewer struct {
	source      core.RegistrantSource
	labels      Labels
	concurrency int
	logger      *slog.Logger
	clock       func() time.Time
	archiveSink func(io.Writer) io.Writer

	mu      sync.RWMutex
	records []model.Registrant
	loaded  bool
	page    int
	lastErr error
}

// Page is a read model of the viewer state for one render.
type Page struct {
	Items          []model.Registrant `json:"items"`
	Page           int                `json:"page"`
	PageSize       int                `json:"page_size"`
	TotalPages     int                `json:"total_pages"`
	TotalCount     int                `json:"total_count"`
	HasPrev        bool               `json:"has_prev"`
	HasNext        bool               `json:"has_next"`
	StartIndex     int                `json:"start_index"`
	EndIndex       int                `json:"end_index"`
	Loaded         bool               `json:"loaded"`
	Empty          bool               `json:"empty"`
	ExportsEnabled bool               `json:"exports_enabled"`
	Error          string             `json:"error,omitempty"`
}

// New creates a viewer on page 1 with no records loaded.
func New(source core.RegistrantSource, opts Options) (*Viewer, error) {
	if source == nil {
		return nil, errors.New("RegistrantSource is required")
	}

	labels := opts.Labels
	if labels.isZero() {
		labels = DefaultLabels()
	}

	concurrency := opts.AttachmentConcurrency
	if concurrency <= 0 {
		concurrency = DefaultAttachmentConcurrency
	}
	concurrency = min(concurrency, maxAttachmentConcurrency)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	archiveSink := opts.ArchiveWriter
	if archiveSink == nil {
		archiveSink = func(w io.Writer) io.Writer { return w }
	}

	return &Viewer{
		source:      source,
		labels:      labels,
		concurrency: concurrency,
		logger:      logger.With("component", "registrant_viewer"),
		clock:       clock,
		archiveSink: archiveSink,
		page:        1,
	}, nil
}

// LoadRecords fetches the full registrant collection and replaces the held one.
// On failure nothing is replaced and a *FetchError is returned and kept as the error state.
// A successful refetch keeps the current page when it still exists and otherwise clamps it
// to the new last page.
func (v *Viewer) LoadRecords(ctx context.Context, token string) error {
	records, err := v.source.FetchRegistrants(ctx, token)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		fetchErr := &FetchError{Err: err}
		v.lastErr = fetchErr
		v.logger.WarnContext(ctx, "registrant fetch failed", "error", err)
		return fetchErr
	}

	v.records = slices.Clone(records)
	v.loaded = true
	v.lastErr = nil

	total := TotalPages(len(v.records), PageSize)
	switch {
	case total == 0:
		v.page = 1
	case v.page > total:
		v.page = total
	}

	v.logger.DebugContext(ctx, "registrants loaded", "count", len(v.records), "page", v.page)
	return nil
}

// Loaded reports whether a fetch has succeeded at least once.
func (v *Viewer) Loaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

// Err returns the error of the last failed fetch, or nil after a successful one.
func (v *Viewer) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastErr
}

// GoToPage moves to page n. Out-of-range pages return ErrPageOutOfRange and leave the state unchanged.
func (v *Viewer) GoToPage(n int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if n < 1 || n > TotalPages(len(v.records), PageSize) {
		return ErrPageOutOfRange
	}
	v.page = n
	return nil
}

// GoToFirst is GoToPage(1).
func (v *Viewer) GoToFirst() error {
	return v.GoToPage(1)
}

// GoToLast is GoToPage(TotalPages()).
func (v *Viewer) GoToLast() error {
	return v.GoToPage(v.TotalPages())
}

// CurrentPage returns the 1-indexed current page.
func (v *Viewer) CurrentPage() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.page
}

// TotalPages returns the number of pages of the held collection.
func (v *Viewer) TotalPages() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return TotalPages(len(v.records), PageSize)
}

// CurrentPageItems returns a copy of the records on the current page.
func (v *Viewer) CurrentPageItems() []model.Registrant {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.pageItemsLocked()
}

func (v *Viewer) pageItemsLocked() []model.Registrant {
	start, end := Window(len(v.records), v.page, PageSize)
	return slices.Clone(v.records[start:end])
}

// Snapshot returns the current page together with its pagination metadata.
func (v *Viewer) Snapshot() Page {
	v.mu.RLock()
	defer v.mu.RUnlock()

	n := len(v.records)
	total := TotalPages(n, PageSize)
	start, end := Window(n, v.page, PageSize)

	p := Page{
		Items:          v.pageItemsLocked(),
		Page:           v.page,
		PageSize:       PageSize,
		TotalPages:     total,
		TotalCount:     n,
		HasPrev:        total > 0 && v.page > 1,
		HasNext:        v.page < total,
		Loaded:         v.loaded,
		Empty:          n == 0,
		ExportsEnabled: v.loaded && n > 0,
	}
	if p.Items == nil {
		p.Items = []model.Registrant{}
	}
	if end > start {
		p.StartIndex = start + 1
		p.EndIndex = end
	}
	if v.lastErr != nil {
		p.Error = v.lastErr.Error()
	}
	return p
}

// exportable returns a copy of the full collection, or ErrExportUnavailable.
func (v *Viewer) exportable() ([]model.Registrant, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.loaded || len(v.records) == 0 {
		return nil, ErrExportUnavailable
	}
	return slices.Clone(v.records), nil
}
