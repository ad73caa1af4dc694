package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/komunitas-inovasi/komunitas/internal/core"
	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
)

// PropertyServiceOptions groups dependencies for PropertyService.
type PropertyServiceOptions struct {
	Repo    core.PropertyRepository
	Uploads core.UploadStore
	Logger  *slog.Logger
}

// PropertyService manages property listings and their photos.
type PropertyService struct {
	repo    core.PropertyRepository
	uploads core.UploadStore
	logger  *slog.Logger
}

// NewPropertyService constructs a PropertyService.
func NewPropertyService(opts PropertyServiceOptions) (*PropertyService, error) {
	if opts.Repo == nil {
		return nil, errors.New("PropertyRepository is required")
	}
	if opts.Uploads == nil {
		return nil, errors.New("UploadStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PropertyService{
		repo:    opts.Repo,
		uploads: opts.Uploads,
		logger:  logger.With("component", "property_service"),
	}, nil
}

// PhotoUpload is an optional photo submitted with a new listing.
type PhotoUpload struct {
	Filename string
	Content  io.Reader
}

// Create stores the photo, if any, then the listing. The photo is removed again when the listing
// cannot be stored.
func (s *PropertyService) Create(
	ctx context.Context,
	req model.CreatePropertyRequest,
	photo *PhotoUpload,
) (*model.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if photo != nil && photo.Content != nil {
		p, err := s.uploads.Save(ctx, photo.Filename, photo.Content)
		if err != nil {
			return nil, fmt.Errorf("save photo: %w", err)
		}
		req.Photo = &p
	}

	created, err := s.repo.Create(ctx, req)
	if err != nil {
		if req.Photo != nil {
			if rmErr := s.uploads.Remove(ctx, *req.Photo); rmErr != nil {
				s.logger.WarnContext(ctx, "failed to remove orphaned photo", "photo", *req.Photo, "error", rmErr)
			}
		}
		return nil, fmt.Errorf("create property: %w", err)
	}

	s.logger.InfoContext(ctx, "property added", "id", created.ID, "has_photo", created.Photo != nil)
	return created, nil
}

// List returns all listings.
func (s *PropertyService) List(ctx context.Context) ([]*model.Property, error) {
	return s.repo.List(ctx)
}

// Get returns one listing.
func (s *PropertyService) Get(ctx context.Context, id string) (*model.Property, error) {
	return s.repo.GetByID(ctx, id)
}

// Update changes the provided fields of a listing. A new photo replaces the current one, which is
// removed from the store once the listing points at the new file.
func (s *PropertyService) Update(
	ctx context.Context,
	id string,
	req model.UpdatePropertyRequest,
	photo *PhotoUpload,
) (*model.Property, error) {
	hasPhoto := photo != nil && photo.Content != nil
	check := req
	if hasPhoto {
		check.Photo = new(string)
	}
	if err := check.Validate(); err != nil {
		return nil, err
	}
	if !hasPhoto {
		return s.repo.Update(ctx, id, req)
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.uploads.Save(ctx, photo.Filename, photo.Content)
	if err != nil {
		return nil, fmt.Errorf("save photo: %w", err)
	}
	req.Photo = &p

	updated, err := s.repo.Update(ctx, id, req)
	if err != nil {
		if rmErr := s.uploads.Remove(ctx, p); rmErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned photo", "photo", p, "error", rmErr)
		}
		return nil, err
	}

	if existing.Photo != nil && *existing.Photo != p {
		if rmErr := s.uploads.Remove(ctx, *existing.Photo); rmErr != nil {
			s.logger.WarnContext(ctx, "failed to remove replaced photo", "id", id, "photo", *existing.Photo, "error", rmErr)
		}
	}
	s.logger.InfoContext(ctx, "property photo replaced", "id", id)
	return updated, nil
}

// Delete removes a listing and its photo.
func (s *PropertyService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if !deleted {
		return apperrors.NotFoundf("property %q not found", id)
	}

	if existing.Photo != nil {
		if rmErr := s.uploads.Remove(ctx, *existing.Photo); rmErr != nil {
			s.logger.WarnContext(ctx, "failed to remove property photo", "id", id, "error", rmErr)
		}
	}
	return nil
}
