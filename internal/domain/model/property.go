package model

import (
	"strings"
	"time"

	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
)

// Property is a real-estate listing served by the property API.
type Property struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Price       float64 `json:"price"`
	Address     string  `json:"address"`
	Bedrooms    int     `json:"bedrooms"`
	Bathrooms   int     `json:"bathrooms"`
	Description string  `json:"description"`
	Photo       *string `json:"photo"`
}

// CreatePropertyRequest contains the fields to create a property listing.
// Photo is the public path of an already stored upload, if any.
type CreatePropertyRequest struct {
	Name        string
	Type        string
	Price       float64
	Address     string
	Bedrooms    int
	Bathrooms   int
	Description string
	Photo       *string
}

// Validate checks the numeric fields only; the listing form accepts free text everywhere else.
func (r *CreatePropertyRequest) Validate() error {
	if r.Price < 0 {
		return apperrors.ValidationField("price", "price cannot be negative")
	}
	if r.Bedrooms < 0 {
		return apperrors.ValidationField("bedrooms", "bedrooms cannot be negative")
	}
	if r.Bathrooms < 0 {
		return apperrors.ValidationField("bathrooms", "bathrooms cannot be negative")
	}
	return nil
}

// UpdatePropertyRequest contains optional fields to update. Nil fields are left unchanged.
type UpdatePropertyRequest struct {
	Name        *string  `json:"name,omitempty"`
	Type        *string  `json:"type,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Bedrooms    *int     `json:"bedrooms,omitempty"`
	Bathrooms   *int     `json:"bathrooms,omitempty"`
	Description *string  `json:"description,omitempty"`
	// Photo is the public path of a newly stored upload replacing the current one. It is set by the
	// service after saving the file, never decoded from a request body.
	Photo *string `json:"-"`
}

// HasUpdates reports whether any field is set.
func (r *UpdatePropertyRequest) HasUpdates() bool {
	return r.Name != nil || r.Type != nil || r.Price != nil || r.Address != nil ||
		r.Bedrooms != nil || r.Bathrooms != nil || r.Description != nil || r.Photo != nil
}

// Validate mirrors CreatePropertyRequest.Validate for the provided fields.
func (r *UpdatePropertyRequest) Validate() error {
	if !r.HasUpdates() {
		return apperrors.Validation("no fields to update")
	}
	if r.Price != nil && *r.Price < 0 {
		return apperrors.ValidationField("price", "price cannot be negative")
	}
	if r.Bedrooms != nil && *r.Bedrooms < 0 {
		return apperrors.ValidationField("bedrooms", "bedrooms cannot be negative")
	}
	if r.Bathrooms != nil && *r.Bathrooms < 0 {
		return apperrors.ValidationField("bathrooms", "bathrooms cannot be negative")
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return apperrors.ValidationField("name", "name cannot be empty")
	}
	return nil
}

// StoredUpload describes a file kept by the upload store.
type StoredUpload struct {
	PublicPath string
	Size       int64
	ModifiedAt time.Time
}
