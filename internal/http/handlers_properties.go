package httpx

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
	"github.com/komunitas-inovasi/komunitas/internal/service"
)

// maxPropertyForm caps the property form including its photo.
const maxPropertyForm = 12 << 20

// PropertyServiceInterface is the listing service as seen by the handlers.
type PropertyServiceInterface interface {
	Create(ctx context.Context, req model.CreatePropertyRequest, photo *service.PhotoUpload) (*model.Property, error)
	List(ctx context.Context) ([]*model.Property, error)
	Get(ctx context.Context, id string) (*model.Property, error)
	Update(
		ctx context.Context,
		id string,
		req model.UpdatePropertyRequest,
		photo *service.PhotoUpload,
	) (*model.Property, error)
	Delete(ctx context.Context, id string) error
}

// PropertyHandlers serves the property listing API.
type PropertyHandlers struct {
	Svc       PropertyServiceInterface
	Responder *Responder
	Logger    *slog.Logger
}

func (h *PropertyHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// fail reports client errors in the error envelope and everything else as the listing API's
// plain {"message"} body.
func (h *PropertyHandlers) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case apperrors.IsValidation(err), apperrors.IsNotFound(err):
		h.Responder.Fail(w, r, err, "", nil)
	default:
		h.logger().ErrorContext(r.Context(), message, "error", err)
		WriteMessage(w, http.StatusInternalServerError, message)
	}
}

// Create adds a listing from a multipart form with an optional photo.
// POST /api/add-property.
func (h *PropertyHandlers) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPropertyForm)
	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.fail(w, r, apperrors.Validation("invalid form data"), "Failed to add property")
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	req, err := propertyFromForm(r)
	if err != nil {
		h.fail(w, r, err, "Failed to add property")
		return
	}

	photo, closePhoto, err := formPhoto(r)
	if err != nil {
		h.fail(w, r, err, "Failed to add property")
		return
	}
	defer closePhoto()

	if _, err := h.Svc.Create(r.Context(), req, photo); err != nil {
		h.fail(w, r, err, "Failed to add property")
		return
	}
	WriteMessage(w, http.StatusCreated, "Property added successfully")
}

// formPhoto returns the optional "photo" file of a parsed form and a func that closes it.
func formPhoto(r *http.Request) (*service.PhotoUpload, func(), error) {
	file, header, err := r.FormFile("photo")
	switch {
	case err == nil:
		return &service.PhotoUpload{Filename: header.Filename, Content: file}, func() { _ = file.Close() }, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, func() {}, nil
	default:
		return nil, func() {}, err
	}
}

// propertyFromForm reads the listing fields. Numbers may be left empty.
func propertyFromForm(r *http.Request) (model.CreatePropertyRequest, error) {
	req := model.CreatePropertyRequest{
		Name:        r.FormValue("name"),
		Type:        r.FormValue("type"),
		Address:     r.FormValue("address"),
		Description: r.FormValue("description"),
	}

	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, apperrors.ValidationField("price", "price must be a number")
		}
		req.Price = price
	}
	for _, f := range []struct {
		name string
		dst  *int
	}{{"bedrooms", &req.Bedrooms}, {"bathrooms", &req.Bathrooms}} {
		raw := strings.TrimSpace(r.FormValue(f.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, apperrors.ValidationField(f.name, f.name+" must be a whole number")
		}
		*f.dst = n
	}
	return req, nil
}

// List returns every listing. GET /api/properties.
func (h *PropertyHandlers) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch properties")
		return
	}
	if list == nil {
		list = []*model.Property{}
	}
	WriteJSON(w, http.StatusOK, list)
}

// Get returns one listing. GET /api/properties/{id}.
func (h *PropertyHandlers) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "Failed to fetch property")
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// Update changes the provided fields of a listing. PUT /api/properties/{id} with a JSON body, or a
// multipart form whose optional "photo" replaces the current one.
func (h *PropertyHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var (
		req   model.UpdatePropertyRequest
		photo *service.PhotoUpload
	)
	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxPropertyForm)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			h.fail(w, r, apperrors.Validation("invalid form data"), "Failed to update property")
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		var err error
		if req, err = propertyUpdateFromForm(r); err != nil {
			h.fail(w, r, err, "Failed to update property")
			return
		}
		var closePhoto func()
		if photo, closePhoto, err = formPhoto(r); err != nil {
			h.fail(w, r, err, "Failed to update property")
			return
		}
		defer closePhoto()
	} else if !DecodeJSON(w, r, &req) {
		return
	}

	p, err := h.Svc.Update(r.Context(), r.PathValue("id"), req, photo)
	if err != nil {
		h.fail(w, r, err, "Failed to update property")
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// propertyUpdateFromForm reads the listing fields present in a multipart form. Absent fields stay nil.
func propertyUpdateFromForm(r *http.Request) (model.UpdatePropertyRequest, error) {
	var req model.UpdatePropertyRequest
	values := r.MultipartForm.Value
	text := func(key string) *string {
		if v, ok := values[key]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}

	req.Name = text("name")
	req.Type = text("type")
	req.Address = text("address")
	req.Description = text("description")

	if raw := text("price"); raw != nil {
		price, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
		if err != nil {
			return req, apperrors.ValidationField("price", "price must be a number")
		}
		req.Price = &price
	}
	for _, f := range []struct {
		name string
		dst  **int
	}{{"bedrooms", &req.Bedrooms}, {"bathrooms", &req.Bathrooms}} {
		raw := text(f.name)
		if raw == nil {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(*raw))
		if err != nil {
			return req, apperrors.ValidationField(f.name, f.name+" must be a whole number")
		}
		*f.dst = &n
	}
	return req, nil
}

// Delete removes a listing and its photo. DELETE /api/properties/{id}.
func (h *PropertyHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err, "Failed to delete property")
		return
	}
	WriteMessage(w, http.StatusOK, "Property deleted successfully")
}
