package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the admin console and public registration endpoint.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeProperties mounts the property listing API on the HTTP server.
	ServiceModeProperties ServiceMode = "properties"
	// ServiceModeReaper runs the orphaned upload reaper.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeProperties, ServiceModeReaper}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for part := range strings.SplitSeq(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeProperties, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, properties, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	// The property API lives on the HTTP server.
	if services[ServiceModeProperties] && !services[ServiceModeHTTP] {
		return nil, errors.New("service \"properties\" requires \"http\"")
	}

	return services, nil
}

// UploadsConfig controls where property photos are stored and how orphans are reaped.
type UploadsConfig struct {
	// Dir is the directory photos are written to and served from.
	Dir string `env:"UPLOADS_DIR" envDefault:"uploads"`

	// PublicPrefix is the URL path the directory is served under.
	PublicPrefix string `env:"UPLOADS_PUBLIC_PREFIX" envDefault:"/uploads/"`

	// MaxBytes caps a single photo.
	MaxBytes int64 `env:"UPLOADS_MAX_BYTES" envDefault:"10485760"`

	// ReaperSchedule is a cron expression (or @daily, @every 6h, ...) for the orphan reaper.
	ReaperSchedule string `env:"UPLOADS_REAPER_SCHEDULE" envDefault:"@daily"`

	// ReaperMinAge protects freshly written photos whose listing is still being saved.
	ReaperMinAge time.Duration `env:"UPLOADS_REAPER_MIN_AGE" envDefault:"24h"`

	// ReaperRunOnStart runs one pass at startup before the first scheduled tick.
	ReaperRunOnStart bool `env:"UPLOADS_REAPER_RUN_ON_START" envDefault:"false"`
}

// Sanitize applies guardrails to upload configuration values.
func (u *UploadsConfig) Sanitize() {
	u.Dir = strings.TrimSpace(u.Dir)
	if u.Dir == "" {
		u.Dir = "uploads"
	}
	if !strings.HasPrefix(u.PublicPrefix, "/") {
		u.PublicPrefix = "/" + u.PublicPrefix
	}
	if !strings.HasSuffix(u.PublicPrefix, "/") {
		u.PublicPrefix += "/"
	}
	if u.MaxBytes <= 0 {
		u.MaxBytes = 10 << 20
	}
	if _, err := cron.ParseStandard(u.ReaperSchedule); err != nil {
		u.ReaperSchedule = "@daily"
	}
	if u.ReaperMinAge < time.Hour {
		u.ReaperMinAge = time.Hour
	}
}

// LocaleConfig selects the default language for messages and export labels.
type LocaleConfig struct {
	// Default is a BCP 47 tag with bundled messages: id or en.
	Default string `env:"APP_LOCALE" envDefault:"id"`
}

// Sanitize falls back to Indonesian for empty values.
func (l *LocaleConfig) Sanitize() {
	l.Default = strings.TrimSpace(l.Default)
	if l.Default == "" {
		l.Default = "id"
	}
}
