package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// TrustProxy takes client addresses from X-Forwarded-For for rate limiting and honours
	// X-Forwarded-Proto for the session cookie's Secure flag.
	TrustProxy bool `env:"HTTP_TRUST_PROXY" envDefault:"false"`

	// CompressionEnabled enables gzip compression for JSON and text responses.
	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"false"`

	// CompressionLevel is the gzip compression level (1-9).
	// Default is 6 (standard gzip default).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`

	// Per-client limits for the unauthenticated write endpoints, in requests per second.
	// Zero disables limiting.
	LoginRate     float64 `env:"HTTP_LOGIN_RATE"     envDefault:"0.2"`
	LoginBurst    int     `env:"HTTP_LOGIN_BURST"    envDefault:"5"`
	RegisterRate  float64 `env:"HTTP_REGISTER_RATE"  envDefault:"0.1"`
	RegisterBurst int     `env:"HTTP_REGISTER_BURST" envDefault:"3"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests, exports included.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	// Clamp compression level to valid gzip range (1-9)
	if h.CompressionLevel < 1 {
		h.CompressionLevel = 1
	}
	if h.CompressionLevel > 9 {
		h.CompressionLevel = 9
	}
	if h.LoginRate < 0 {
		h.LoginRate = 0
	}
	if h.RegisterRate < 0 {
		h.RegisterRate = 0
	}
	if h.LoginBurst < 1 {
		h.LoginBurst = 1
	}
	if h.RegisterBurst < 1 {
		h.RegisterBurst = 1
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 30 * time.Second
	}
}
