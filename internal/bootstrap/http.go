package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/komunitas-inovasi/komunitas/config"
	httpx "github.com/komunitas-inovasi/komunitas/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	// Optional: pinged by /readyz.
	RedisClient redis.UniversalClient
	MongoClient *mongo.Client
	Logger      *slog.Logger
}

// NewHTTPServer builds the HTTP server with its middleware chain. It does not start listening.
func NewHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Translator:   cfg.Services.Translator,
		CookieDomain: appCfg.HTTP.CookieDomain,
		TrustProxy:   appCfg.HTTP.TrustProxy,
		Readiness:    readinessChecks(cfg.RedisClient, cfg.MongoClient),
		LoginRateLimit: httpx.RateLimitConfig{
			Rate:       appCfg.HTTP.LoginRate,
			Burst:      appCfg.HTTP.LoginBurst,
			TrustProxy: appCfg.HTTP.TrustProxy,
		},
		RegisterRateLimit: httpx.RateLimitConfig{
			Rate:       appCfg.HTTP.RegisterRate,
			Burst:      appCfg.HTTP.RegisterBurst,
			TrustProxy: appCfg.HTTP.TrustProxy,
		},
		Logger: logger,
	}
	// Typed nils would defeat the router's nil checks.
	if cfg.Services.Auth != nil {
		services.Auth = cfg.Services.Auth
	}
	if cfg.Services.Registrants != nil {
		services.Registrants = cfg.Services.Registrants
	}
	if appCfg.IsPropertiesEnabled() && cfg.Services.Properties != nil {
		services.Properties = cfg.Services.Properties
		if cfg.Services.Uploads != nil {
			services.UploadsDir = cfg.Services.Uploads.Dir()
			services.UploadsPrefix = cfg.Services.Uploads.PublicPrefix()
		}
	}

	handler := buildHTTPHandler(httpHandlerConfig{
		Logger:   logger,
		Services: services,
		HTTP:     appCfg.HTTP,
	})

	addr := appCfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// Archive exports download every attachment before the first byte is written.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}, nil
}

type httpHandlerConfig struct {
	Logger   *slog.Logger
	Services httpx.RouterServices
	HTTP     config.HTTPConfig
}

func buildHTTPHandler(cfg httpHandlerConfig) http.Handler {
	router := httpx.NewRouter(cfg.Services)

	// Apply compression middleware first (innermost) so logging captures compressed sizes
	// Order: Recover -> Logging -> Compression -> Router
	h := router
	if cfg.HTTP.CompressionEnabled {
		cfg.Logger.Info("HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: cfg.HTTP.CompressionLevel})(h)
	}

	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.Recover(cfg.Logger)(h)

	return h
}

func readinessChecks(redisClient redis.UniversalClient, mongoClient *mongo.Client) map[string]httpx.ReadinessCheck {
	checks := make(map[string]httpx.ReadinessCheck, 2)
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if mongoClient != nil {
		checks["mongo"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) }
	}
	return checks
}
