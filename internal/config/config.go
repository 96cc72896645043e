// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package config

import (
	"fmt"
	"time"

	"github.com/sightlinehq/sightline/internal/outbound"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file, and environment variables.
//
// Loading order (Koanf v2):
//  1. Defaults: built-in sensible defaults for every setting
//  2. Config file: optional YAML file (config.yaml)
//  3. Environment variables: override any setting
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Providers ProvidersConfig `koanf:"providers"`
	Outbound  outbound.Config `koanf:"outbound"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 8080)
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`
}

// ProvidersConfig holds credentials and endpoints for the external
// services the pipeline queries. Keys are optional: a provider without
// credentials is skipped during panorama selection, and geocoding is
// best-effort.
//
// Environment Variables:
//   - GOOGLE_MAPS_API_KEY: Google Street View Static API key
//   - MAPILLARY_TOKEN: Mapillary Graph API access token
//   - NOMINATIM_EMAIL: Contact email sent with Nominatim requests
type ProvidersConfig struct {
	GoogleKey      string `koanf:"google_key"`
	MapillaryToken string `koanf:"mapillary_token"`
	NominatimEmail string `koanf:"nominatim_email"`
	NominatimURL   string `koanf:"nominatim_url"`
	StreetViewURL  string `koanf:"street_view_url"`
	MapillaryURL   string `koanf:"mapillary_url"`
}

// PipelineConfig holds defaults for the estimation pipeline.
type PipelineConfig struct {
	Deadline         time.Duration `koanf:"deadline"`
	DefaultDistanceM float64       `koanf:"default_distance_m"`
	SearchRadiusM    float64       `koanf:"search_radius_m"`
	ThumbnailWidth   int           `koanf:"thumbnail_width"`
	ThumbnailHeight  int           `koanf:"thumbnail_height"`
	ThumbnailFOV     int           `koanf:"thumbnail_fov"`
	ThumbnailPitch   int           `koanf:"thumbnail_pitch"`
	GeocodeCacheTTL  time.Duration `koanf:"geocode_cache_ttl"`
}

// RateLimitConfig governs the shared per-provider token bucket that
// paces outbound calls.
type RateLimitConfig struct {
	RatePerSec float64 `koanf:"rate_per_sec"`
	Burst      int     `koanf:"burst"`
}

// SecurityConfig holds inbound protection settings.
//
// Environment Variables:
//   - CORS_ORIGINS: Comma-separated allowed origins (default: *)
//   - RATE_LIMIT_REQUESTS: Requests per window per client IP
//   - RATE_LIMIT_WINDOW: Rate limit window duration
//   - DISABLE_RATE_LIMIT: Disable inbound rate limiting entirely
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds log output settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: Include caller file:line in log entries
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Pipeline.Deadline <= 0 {
		return fmt.Errorf("pipeline.deadline must be positive, got %v", c.Pipeline.Deadline)
	}
	if c.Pipeline.DefaultDistanceM <= 0 {
		return fmt.Errorf("pipeline.default_distance_m must be positive, got %v", c.Pipeline.DefaultDistanceM)
	}
	if c.Pipeline.SearchRadiusM <= 0 {
		return fmt.Errorf("pipeline.search_radius_m must be positive, got %v", c.Pipeline.SearchRadiusM)
	}
	if c.RateLimit.RatePerSec <= 0 {
		return fmt.Errorf("rate_limit.rate_per_sec must be positive, got %v", c.RateLimit.RatePerSec)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1, got %d", c.RateLimit.Burst)
	}
	if c.Outbound.Timeout <= 0 {
		return fmt.Errorf("outbound.timeout must be positive, got %v", c.Outbound.Timeout)
	}
	if c.Outbound.MaxRetries < 0 {
		return fmt.Errorf("outbound.max_retries must not be negative, got %d", c.Outbound.MaxRetries)
	}
	if c.Providers.NominatimURL == "" {
		return fmt.Errorf("providers.nominatim_url must not be empty")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("security.rate_limit_reqs must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %v", c.Security.RateLimitWindow)
		}
	}
	return nil
}
