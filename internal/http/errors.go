package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/komunitas-inovasi/komunitas/internal/adapters/registrantapi"
	apperrors "github.com/komunitas-inovasi/komunitas/internal/errors"
	"github.com/komunitas-inovasi/komunitas/internal/i18n"
	"github.com/komunitas-inovasi/komunitas/internal/service"
	"github.com/komunitas-inovasi/komunitas/internal/viewer"
)

// failure is the HTTP rendering of an error. Message, when set, is shown verbatim;
// otherwise Key is localized.
type failure struct {
	Status  int
	Code    string
	Key     string
	Message string
	Field   string
}

// classify maps service and adapter errors onto status codes and error codes.
func classify(err error) failure {
	var (
		authErr    *registrantapi.AuthError
		rejected   *registrantapi.RejectedError
		notFound   *registrantapi.NotFoundError
		netErr     *registrantapi.NetworkError
		fetchErr   *viewer.FetchError
		archiveErr *viewer.ArchiveBuildError
		appErr     *apperrors.AppError
	)

	switch {
	case errors.Is(err, viewer.ErrPageOutOfRange):
		return failure{Status: http.StatusBadRequest, Code: "page_out_of_range", Key: i18n.KeyPageOutOfRange}
	case errors.Is(err, viewer.ErrExportUnavailable):
		return failure{Status: http.StatusConflict, Code: "export_unavailable", Key: i18n.KeyExportUnavailable}
	case errors.Is(err, service.ErrSessionExpired):
		return failure{Status: http.StatusUnauthorized, Code: "session_expired", Key: i18n.KeySessionExpired}
	case errors.As(err, &archiveErr):
		return failure{Status: http.StatusInternalServerError, Code: "archive_failed", Key: i18n.KeyArchiveFailed}
	case errors.As(err, &fetchErr):
		if errors.As(err, &authErr) {
			return failure{Status: http.StatusUnauthorized, Code: "session_expired", Key: i18n.KeySessionExpired}
		}
		return failure{Status: http.StatusBadGateway, Code: "fetch_failed", Key: i18n.KeyFetchFailed}
	case errors.As(err, &authErr):
		return failure{Status: http.StatusUnauthorized, Code: "unauthorized", Message: authErr.Message}
	case errors.As(err, &rejected):
		return failure{Status: http.StatusBadRequest, Code: "rejected", Message: rejected.Message}
	case errors.As(err, &notFound):
		return failure{Status: http.StatusNotFound, Code: "not_found", Message: notFound.Error()}
	case errors.As(err, &netErr):
		return failure{Status: http.StatusBadGateway, Code: "upstream_unavailable"}
	case errors.As(err, &appErr):
		return classifyAppError(appErr)
	default:
		return failure{Status: http.StatusInternalServerError, Code: "internal"}
	}
}

func classifyAppError(e *apperrors.AppError) failure {
	switch e.Code {
	case apperrors.ErrCodeValidation:
		return failure{Status: http.StatusBadRequest, Code: "validation", Message: e.Message, Field: e.Field}
	case apperrors.ErrCodeNotFound:
		return failure{Status: http.StatusNotFound, Code: "not_found", Message: e.Message}
	case apperrors.ErrCodeUnauthorized:
		return failure{Status: http.StatusUnauthorized, Code: "unauthorized", Message: e.Message}
	case apperrors.ErrCodeUnavailable:
		return failure{Status: http.StatusConflict, Code: "unavailable", Message: e.Message}
	case apperrors.ErrCodeUpstream:
		return failure{Status: http.StatusBadGateway, Code: "upstream_unavailable"}
	default:
		return failure{Status: http.StatusInternalServerError, Code: "internal"}
	}
}

// Responder writes localized error responses.
type Responder struct {
	Translator *i18n.Translator
	Logger     *slog.Logger
}

func (rs *Responder) logger() *slog.Logger {
	if rs != nil && rs.Logger != nil {
		return rs.Logger
	}
	return slog.Default()
}

// Locale returns the locale for the request: the session's, then ?lang, then Accept-Language.
func (rs *Responder) Locale(r *http.Request) string {
	if sess, ok := GetSessionFromContext(r.Context()); ok && sess.Locale != "" {
		return sess.Locale
	}
	if rs == nil || rs.Translator == nil {
		return ""
	}
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return rs.Translator.Match(lang)
	}
	return rs.Translator.Match(r.Header.Get("Accept-Language"))
}

// T localizes key for the request.
func (rs *Responder) T(r *http.Request, key string, data map[string]any) string {
	if rs == nil || rs.Translator == nil {
		return key
	}
	return rs.Translator.T(rs.Locale(r), key, data)
}

// Fail writes err as a JSON error. fallbackKey is localized when the error carries no message
// of its own; data feeds the message template.
func (rs *Responder) Fail(w http.ResponseWriter, r *http.Request, err error, fallbackKey string, data map[string]any) {
	f := classify(err)

	msg := f.Message
	if msg == "" {
		key := f.Key
		if key == "" {
			key = fallbackKey
		}
		if key != "" {
			msg = rs.T(r, key, data)
		}
	}
	if msg == "" {
		msg = http.StatusText(f.Status)
	}

	if f.Status >= http.StatusInternalServerError {
		rs.logger().ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path, "status", f.Status, "code", f.Code, "error", err)
	} else {
		rs.logger().DebugContext(r.Context(), "request rejected",
			"path", r.URL.Path, "status", f.Status, "code", f.Code, "error", err)
	}

	WriteError(w, ErrorParams{Code: f.Status, ErrCode: f.Code, Err: err, Message: msg, Field: f.Field})
}
