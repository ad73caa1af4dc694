package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/komunitas-inovasi/komunitas/internal/core"
)

// DefaultUploadMinAge is how old an unreferenced upload must be before it is removed.
const DefaultUploadMinAge = 24 * time.Hour

// UploadReaperServiceOptions groups dependencies for UploadReaperService.
type UploadReaperServiceOptions struct {
	Properties core.PropertyRepository // Required
	Uploads    core.UploadStore        // Required
	MinAge     time.Duration           // Optional: defaults to DefaultUploadMinAge
	Clock      func() time.Time
	Logger     *slog.Logger
}

// UploadReaperService removes stored uploads that no property listing references.
//
// Uploads younger than MinAge are kept so a photo saved moments before its listing is not
// removed while the listing is still being written.
type UploadReaperService struct {
	properties core.PropertyRepository
	uploads    core.UploadStore
	minAge     time.Duration
	clock      func() time.Time
	logger     *slog.Logger
}

// ReapResult summarises one cleanup pass.
type ReapResult struct {
	Scanned int
	Removed int
	Freed   int64
}

// NewUploadReaperService constructs a new UploadReaperService.
func NewUploadReaperService(opts UploadReaperServiceOptions) (*UploadReaperService, error) {
	if opts.Properties == nil {
		return nil, errors.New("PropertyRepository is required")
	}
	if opts.Uploads == nil {
		return nil, errors.New("UploadStore is required")
	}

	minAge := opts.MinAge
	if minAge <= 0 {
		minAge = DefaultUploadMinAge
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "upload_reaper")
	logger.Debug("UploadReaperService initialized", "min_age", minAge)

	return &UploadReaperService{
		properties: opts.Properties,
		uploads:    opts.Uploads,
		minAge:     minAge,
		clock:      clock,
		logger:     logger,
	}, nil
}

// RunOnce performs a single cleanup pass. Removal failures of individual files do not stop
// the pass; they are joined into the returned error.
func (s *UploadReaperService) RunOnce(ctx context.Context) (ReapResult, error) {
	var result ReapResult

	listings, err := s.properties.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list properties: %w", err)
	}
	referenced := make(map[string]struct{}, len(listings))
	for _, p := range listings {
		if p != nil && p.Photo != nil {
			referenced[*p.Photo] = struct{}{}
		}
	}

	stored, err := s.uploads.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list uploads: %w", err)
	}

	cutoff := s.clock().Add(-s.minAge)
	var errs []error
	for _, u := range stored {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Scanned++
		if _, ok := referenced[u.PublicPath]; ok {
			continue
		}
		if u.ModifiedAt.After(cutoff) {
			continue
		}
		if rmErr := s.uploads.Remove(ctx, u.PublicPath); rmErr != nil {
			if isContextCancellation(rmErr) {
				return result, rmErr
			}
			errs = append(errs, fmt.Errorf("remove %s: %w", u.PublicPath, rmErr))
			continue
		}
		result.Removed++
		result.Freed += u.Size
	}

	if result.Removed > 0 {
		s.logger.InfoContext(ctx, "removed orphaned uploads",
			"count", result.Removed,
			"bytes", result.Freed,
			"min_age", s.minAge,
		)
	}

	if len(errs) > 0 {
		return result, fmt.Errorf("cleanup failed: %w", errors.Join(errs...))
	}
	return result, nil
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
