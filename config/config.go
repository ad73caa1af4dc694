package config

import (
	"log/slog"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - backend.go: Community backend and export configuration
//   - database.go: Redis and MongoDB configuration
//   - http.go: HTTP server configuration
//   - services.go: Service mode, uploads and locale configuration
type AppConfig struct {
	// IsDev controls development mode behavior (insecure cookies allowed, text logs).
	// Set DEV=true or APP_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	// Community backend configuration
	Backend BackendConfig
	Export  ExportConfig

	// Storage configuration
	Redis RedisConfig `envPrefix:"REDIS_"`
	Mongo MongoConfig `envPrefix:"MONGO_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http"`

	Uploads UploadsConfig
	Locale  LocaleConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Backend.Sanitize()
	c.Export.Sanitize()
	c.Mongo.Sanitize()
	c.Uploads.Sanitize()
	c.Locale.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks APP_ENV as a fallback to DEV.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

func (c *AppConfig) serviceEnabled(mode ServiceMode) bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[mode]
}

// IsHTTPServerEnabled returns true if the admin console HTTP server is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool { return c.serviceEnabled(ServiceModeHTTP) }

// IsPropertiesEnabled returns true if the property listing API is mounted.
func (c *AppConfig) IsPropertiesEnabled() bool { return c.serviceEnabled(ServiceModeProperties) }

// IsReaperEnabled returns true if the upload reaper runs in this process.
func (c *AppConfig) IsReaperEnabled() bool { return c.serviceEnabled(ServiceModeReaper) }

// NeedsMongo reports whether any enabled service reads property listings.
func (c *AppConfig) NeedsMongo() bool {
	return c.IsPropertiesEnabled() || c.IsReaperEnabled()
}
