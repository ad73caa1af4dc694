package httpx

import (
	"log/slog"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/komunitas-inovasi/komunitas/internal/i18n"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth        AuthServiceInterface
	Registrants RegistrantServiceInterface
	// Optional: property listing API; routes are not registered when nil.
	Properties PropertyServiceInterface
	Translator *i18n.Translator

	// UploadsDir is served read-only under UploadsPrefix when set.
	UploadsDir    string
	UploadsPrefix string

	// Rate limits for the unauthenticated write endpoints.
	LoginRateLimit    RateLimitConfig
	RegisterRateLimit RateLimitConfig

	// Readiness checks reported by /readyz.
	Readiness map[string]ReadinessCheck

	CookieDomain string
	// TrustProxy honours X-Forwarded-Proto for the session cookie's Secure flag.
	TrustProxy bool
	Logger     *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	rs := &Responder{Translator: services.Translator, Logger: logger.With("component", "http")}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Readiness))

	if services.Auth != nil {
		authHandlers := &AuthHandlers{
			Svc:          services.Auth,
			Responder:    rs,
			CookieDomain: services.CookieDomain,
			TrustProxy:   services.TrustProxy,
			Logger:       logger,
		}
		if services.Registrants != nil {
			authHandlers.Viewers = services.Registrants
		}
		registerAuthRoutes(mux, authHandlers, RateLimit(services.LoginRateLimit))
	}

	if services.Registrants != nil && services.Auth != nil {
		h := &RegistrantHandlers{Svc: services.Registrants, Responder: rs, Logger: logger}
		registerRegistrantRoutes(mux, h, registrantRouteConfig{
			requireAuth:   RequireAuth(services.Auth, rs, services.CookieDomain, services.TrustProxy),
			registerLimit: RateLimit(services.RegisterRateLimit),
		})
	}

	if services.Properties != nil {
		registerPropertyRoutes(mux, &PropertyHandlers{Svc: services.Properties, Responder: rs, Logger: logger})
	}

	if services.UploadsDir != "" {
		prefix := services.UploadsPrefix
		if prefix == "" {
			prefix = "/uploads/"
		}
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		mux.Handle("GET "+prefix, uploadsHandler(prefix, services.UploadsDir))
	}

	mux.HandleFunc("/", notFound)
	return mux
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, limit func(http.Handler) http.Handler) {
	mux.Handle("POST /admin/login", limit(http.HandlerFunc(h.Login)))
	mux.HandleFunc("POST /admin/logout", h.Logout)
	mux.HandleFunc("GET /admin/session", h.Status)
}

type registrantRouteConfig struct {
	requireAuth   func(http.Handler) http.Handler
	registerLimit func(http.Handler) http.Handler
}

func registerRegistrantRoutes(mux *http.ServeMux, h *RegistrantHandlers, cfg registrantRouteConfig) {
	wrap := func(fn http.HandlerFunc) http.Handler { return cfg.requireAuth(fn) }

	mux.Handle("GET /api/pendaftar", wrap(h.Page))
	mux.Handle("POST /api/pendaftar/first", wrap(h.First))
	mux.Handle("POST /api/pendaftar/last", wrap(h.Last))
	mux.Handle("POST /api/pendaftar/reload", wrap(h.Reload))
	mux.Handle("GET /api/pendaftar/export.xlsx", wrap(h.ExportSpreadsheet))
	mux.Handle("GET /api/pendaftar/export.zip", wrap(h.ExportArchive))

	mux.Handle("POST /api/pendaftar/add", cfg.registerLimit(http.HandlerFunc(h.Register)))
}

func registerPropertyRoutes(mux *http.ServeMux, h *PropertyHandlers) {
	mux.HandleFunc("POST /api/add-property", h.Create)
	mux.HandleFunc("GET /api/properties", h.List)
	mux.HandleFunc("GET /api/properties/{id}", h.Get)
	mux.HandleFunc("PUT /api/properties/{id}", h.Update)
	mux.HandleFunc("DELETE /api/properties/{id}", h.Delete)
}

// storedUploadPattern matches the <unix-millis><ext> names written by the upload store.
var storedUploadPattern = regexp.MustCompile(`/\d{10,}\.[A-Za-z0-9]+$`)

// uploadsHandler serves stored uploads without directory listings. Stored names never change,
// so they are cached for a long time.
func uploadsHandler(prefix, dir string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			notFound(w, r)
			return
		}
		if storedUploadPattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		hdr := w.Header()
		hdr.Set("X-Content-Type-Options", "nosniff")
		hdr.Set("Content-Security-Policy", "default-src 'none'; sandbox")
		if !inlineImage(r.URL.Path) {
			hdr.Set("Content-Type", "application/octet-stream")
			hdr.Set("Content-Disposition", "attachment")
		}
		files.ServeHTTP(w, r)
	})
}

// inlineImage reports whether a stored file may be rendered by the browser: raster images only.
func inlineImage(name string) bool {
	ct := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	return strings.HasPrefix(ct, "image/") && !strings.HasPrefix(ct, "image/svg")
}

func notFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, ErrorParams{
		Code:    http.StatusNotFound,
		ErrCode: "not_found",
		Message: "no route for " + r.Method + " " + r.URL.Path,
	})
}
