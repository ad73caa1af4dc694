package core

import (
	"context"
	"io"

	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
)

// This file contains the ports between the service layer and its adapters.
// Service implementations should depend on these interfaces, not concrete implementations.

// RegistrantSource is the community backend as seen by the registrant viewer.
type RegistrantSource interface {
	// FetchRegistrants returns every registrant visible to the token holder.
	FetchRegistrants(ctx context.Context, token string) ([]model.Registrant, error)
	// FetchAttachment downloads one proof-of-payment file.
	FetchAttachment(ctx context.Context, url, token string) ([]byte, error)
}

// RegistrationGateway forwards public registrations and admin logins to the community backend.
type RegistrationGateway interface {
	AddRegistrant(ctx context.Context, req model.RegistrationRequest) error
	Login(ctx context.Context, creds model.AdminCredentials) (model.AdminToken, error)
}

// PropertyRepository defines the interface for property listing persistence.
type PropertyRepository interface {
	Create(ctx context.Context, req model.CreatePropertyRequest) (*model.Property, error)
	List(ctx context.Context) ([]*model.Property, error)
	GetByID(ctx context.Context, id string) (*model.Property, error)
	Update(ctx context.Context, id string, req model.UpdatePropertyRequest) (*model.Property, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// UploadStore persists uploaded files and returns their public path.
type UploadStore interface {
	Save(ctx context.Context, originalName string, content io.Reader) (string, error)
	Remove(ctx context.Context, publicPath string) error
	List(ctx context.Context) ([]model.StoredUpload, error)
}
