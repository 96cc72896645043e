// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

// Package main is the entry point for the Sightline server.
//
// Sightline converts 2D bounding-box detections plus camera pose into
// estimated geographic points, enriched with a reverse-geocoded address
// and a street-level panorama from Google Street View or Mapillary.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML, env)
//  2. Logging: zerolog with configured level and format
//  3. Outbound gateway: shared HTTP pool, per-provider rate limiter
//     and circuit breakers
//  4. Enrichment services: Nominatim geocoder with TTL cache, Street
//     View and Mapillary panorama providers
//  5. Pipeline: the estimation orchestrator
//  6. HTTP server: chi router with the estimate/bearing endpoints,
//     health probes, and /metrics
//
// # Configuration
//
// Provider credentials come from the environment; a missing credential
// disables that provider without erroring:
//
//	export GOOGLE_MAPS_API_KEY=your-street-view-key
//	export MAPILLARY_TOKEN=your-mapillary-token
//	export NOMINATIM_EMAIL=ops@example.com
//	./sightline
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM, draining
// in-flight requests for up to 10 seconds.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sightlinehq/sightline/internal/api"
	"github.com/sightlinehq/sightline/internal/cache"
	"github.com/sightlinehq/sightline/internal/config"
	"github.com/sightlinehq/sightline/internal/logging"
	"github.com/sightlinehq/sightline/internal/outbound"
	"github.com/sightlinehq/sightline/internal/pipeline"
	"github.com/sightlinehq/sightline/internal/providers"
	"github.com/sightlinehq/sightline/internal/ratelimit"
)

// version is stamped by the build via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Int("port", cfg.Server.Port).
		Msg("Starting Sightline")

	// Process-scoped services: one limiter and one connection pool
	// shared by every pipeline invocation.
	limiter := ratelimit.NewKeyedLimiter(cfg.RateLimit.RatePerSec, cfg.RateLimit.Burst)
	gateway := outbound.NewClient(cfg.Outbound, limiter)

	geocodeCache := cache.New(cfg.Pipeline.GeocodeCacheTTL, time.Minute)
	geocoder := providers.NewGeocoder(gateway, cfg.Providers.NominatimURL, cfg.Providers.NominatimEmail, geocodeCache)

	streetView := providers.NewStreetView(gateway, cfg.Providers.StreetViewURL, cfg.Providers.GoogleKey, providers.ThumbnailOptions{
		Width:  cfg.Pipeline.ThumbnailWidth,
		Height: cfg.Pipeline.ThumbnailHeight,
		FOV:    cfg.Pipeline.ThumbnailFOV,
		Pitch:  cfg.Pipeline.ThumbnailPitch,
	})
	mapillary := providers.NewMapillary(gateway, cfg.Providers.MapillaryURL, cfg.Providers.MapillaryToken)
	selector := providers.NewSelector(streetView, mapillary)

	var configured []string
	for _, p := range []providers.PanoramaProvider{streetView, mapillary} {
		if p.Configured() {
			configured = append(configured, p.Name())
		}
	}
	if len(configured) == 0 {
		logging.Warn().Msg("No panorama provider credentials configured; estimates will carry empty panoramas")
	} else {
		logging.Info().Strs("providers", configured).Msg("Panorama providers configured")
	}

	pipe := pipeline.New(geocoder, selector, pipeline.Options{
		Deadline:         cfg.Pipeline.Deadline,
		DefaultDistanceM: cfg.Pipeline.DefaultDistanceM,
		DefaultRadiusM:   cfg.Pipeline.SearchRadiusM,
	})

	handler := api.NewHandler(pipe, configured, version)
	router := api.NewRouter(handler, cfg.Security)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		logging.Error().Err(err).Msg("HTTP server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
	logging.Info().Msg("Sightline stopped")
}
