// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/sightlinehq/sightline/internal/outbound"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/sightline/config.yaml",
	"/etc/sightline/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    8080,
			Host:    "0.0.0.0",
			Timeout: 30 * time.Second,
		},
		Providers: ProvidersConfig{
			GoogleKey:      "",
			MapillaryToken: "",
			NominatimEmail: "",
			NominatimURL:   "https://nominatim.openstreetmap.org",
			StreetViewURL:  "https://maps.googleapis.com/maps/api/streetview",
			MapillaryURL:   "https://graph.mapillary.com",
		},
		Outbound: outbound.DefaultConfig(),
		Pipeline: PipelineConfig{
			Deadline:         6 * time.Second,
			DefaultDistanceM: 20.0,
			SearchRadiusM:    50.0,
			ThumbnailWidth:   640,
			ThumbnailHeight:  400,
			ThumbnailFOV:     80,
			ThumbnailPitch:   0,
			GeocodeCacheTTL:  15 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RatePerSec: 10.0,
			Burst:      10,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML (if present)
//  3. Environment variables: highest priority
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// GOOGLE_MAPS_API_KEY -> providers.google_key, HTTP_PORT -> server.port
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when supplied via environment variables.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated strings to slices for the
// known slice fields. Env vars arrive as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are dropped so random environment noise never leaks
// into the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",

		// Provider credential mappings
		"google_maps_api_key": "providers.google_key",
		"mapillary_token":     "providers.mapillary_token",
		"nominatim_email":     "providers.nominatim_email",
		"nominatim_url":       "providers.nominatim_url",
		"street_view_url":     "providers.street_view_url",
		"mapillary_url":       "providers.mapillary_url",

		// Outbound gateway mappings
		"outbound_timeout":           "outbound.timeout",
		"outbound_max_retries":       "outbound.max_retries",
		"outbound_backoff":           "outbound.backoff",
		"outbound_user_agent":        "outbound.user_agent",
		"outbound_breaker_threshold": "outbound.breaker_threshold",
		"outbound_breaker_cooldown":  "outbound.breaker_cooldown",

		// Pipeline mappings
		"pipeline_deadline":          "pipeline.deadline",
		"pipeline_default_distance":  "pipeline.default_distance_m",
		"pipeline_search_radius":     "pipeline.search_radius_m",
		"pipeline_thumbnail_width":   "pipeline.thumbnail_width",
		"pipeline_thumbnail_height":  "pipeline.thumbnail_height",
		"pipeline_thumbnail_fov":     "pipeline.thumbnail_fov",
		"pipeline_thumbnail_pitch":   "pipeline.thumbnail_pitch",
		"pipeline_geocode_cache_ttl": "pipeline.geocode_cache_ttl",

		// Outbound rate limiter mappings
		"rate_limit_per_sec": "rate_limit.rate_per_sec",
		"rate_limit_burst":   "rate_limit.burst",

		// Security mappings
		"cors_origins":        "security.cors_origins",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
