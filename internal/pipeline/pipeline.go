// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

// Package pipeline orchestrates the estimation flow: bearing math and
// geodesic projection run synchronously, then reverse geocoding and
// panorama selection fan out concurrently and join under a single
// deadline. A missed deadline fails the whole request; partial
// responses are never returned.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sightlinehq/sightline/internal/geo"
	"github.com/sightlinehq/sightline/internal/logging"
	"github.com/sightlinehq/sightline/internal/metrics"
	"github.com/sightlinehq/sightline/internal/models"
)

// ErrPipelineTimeout indicates the enrichment fan-out missed the
// pipeline deadline.
var ErrPipelineTimeout = errors.New("estimation pipeline timed out")

// nearestFeatureNote documents the geocoder's approximation and is
// attached to every response.
const nearestFeatureNote = "Nominatim returns nearest suitable feature to the coordinate."

// noPanoramaNote is attached when no configured provider produced a result.
const noPanoramaNote = "No panorama available from configured providers."

// Geocoder resolves a coordinate to a best-effort address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) models.AddressInfo
}

// PanoramaSelector picks a panorama near a point, honoring the caller's
// provider priority order.
type PanoramaSelector interface {
	Choose(ctx context.Context, lat, lon, bearingDeg, radiusM float64, priority []string) models.PanoramaInfo
}

// Options holds the pipeline's tunable defaults.
type Options struct {
	// Deadline bounds the whole run, measured from the first step.
	Deadline time.Duration
	// DefaultDistanceM is the assumed subject distance when the request
	// does not carry one.
	DefaultDistanceM float64
	// DefaultRadiusM is the panorama search radius when the request
	// does not carry one.
	DefaultRadiusM float64
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Deadline:         6 * time.Second,
		DefaultDistanceM: 20.0,
		DefaultRadiusM:   50.0,
	}
}

// Pipeline is stateless per call; the geocoder and selector it holds are
// process-scoped services injected at startup.
type Pipeline struct {
	geocoder Geocoder
	selector PanoramaSelector
	opts     Options
}

// New builds a Pipeline around the given enrichment services.
func New(geocoder Geocoder, selector PanoramaSelector, opts Options) *Pipeline {
	return &Pipeline{
		geocoder: geocoder,
		selector: selector,
		opts:     opts,
	}
}

// Bearing computes the absolute bearing for the request's bbox center
// without running enrichment. Fails only on an unresolvable geometry
// source.
func (p *Pipeline) Bearing(req *models.EstimationRequest) (float64, error) {
	bearing, _, err := p.bearing(req)
	return bearing, err
}

func (p *Pipeline) bearing(req *models.EstimationRequest) (float64, string, error) {
	u, _ := req.BBox.Center()
	return geo.BearingFromBBox(geo.BearingInput{
		U:          u,
		ImageWidth: req.ImageWidth,
		HeadingDeg: req.CameraHeadingDeg,
		HFOVDeg:    req.HFOVDeg,
		Fx:         req.Fx,
		Cx:         req.Cx,
	})
}

// Run executes the full estimation pipeline. Geometry failures and
// geodesic non-convergence return errors for the caller to map;
// enrichment failures degrade inside their components and never fail
// the run. Deadline expiry returns ErrPipelineTimeout.
func (p *Pipeline) Run(ctx context.Context, req *models.EstimationRequest) (*models.EstimateResponse, error) {
	start := time.Now()

	// The deadline covers the whole run from the first step, not just
	// the enrichment fan-out.
	runCtx, cancel := context.WithTimeout(ctx, p.opts.Deadline)
	defer cancel()

	bearing, method, err := p.bearing(req)
	if err != nil {
		metrics.RecordPipeline("error", time.Since(start))
		return nil, err
	}
	deltaYaw := geo.WrapDelta(bearing - req.CameraHeadingDeg)

	distance := p.opts.DefaultDistanceM
	if req.AssumedDistanceM != nil {
		distance = *req.AssumedDistanceM
	}
	radius := p.opts.DefaultRadiusM
	if req.RadiusM != nil {
		radius = *req.RadiusM
	}

	targetLat, targetLon, err := geo.ProjectGeodesic(req.CameraLat, req.CameraLon, bearing, distance)
	if err != nil {
		metrics.RecordPipeline("error", time.Since(start))
		return nil, fmt.Errorf("projecting target point: %w", err)
	}

	// The run context bounds both enrichment tasks; its expiry abandons
	// them together.
	addressCh := make(chan models.AddressInfo, 1)
	panoramaCh := make(chan models.PanoramaInfo, 1)
	go func() {
		addressCh <- p.geocoder.ReverseGeocode(runCtx, targetLat, targetLon)
	}()
	go func() {
		panoramaCh <- p.selector.Choose(runCtx, targetLat, targetLon, bearing, radius, req.ProviderPriority)
	}()

	var (
		address     models.AddressInfo
		panorama    models.PanoramaInfo
		gotAddress  bool
		gotPanorama bool
	)
	for !gotAddress || !gotPanorama {
		select {
		case address = <-addressCh:
			gotAddress = true
		case panorama = <-panoramaCh:
			gotPanorama = true
		case <-runCtx.Done():
			metrics.RecordPipeline("timeout", time.Since(start))
			logging.Warn().
				Dur("elapsed", time.Since(start)).
				Bool("address_done", gotAddress).
				Bool("panorama_done", gotPanorama).
				Msg("Estimation pipeline deadline expired")
			return nil, ErrPipelineTimeout
		}
	}

	notes := []string{nearestFeatureNote}
	if panorama.Provider == "" {
		notes = append(notes, noPanoramaNote)
	}

	metrics.RecordPipeline("ok", time.Since(start))
	return &models.EstimateResponse{
		EstimatedPoint: models.EstimatedPoint{
			Lat:        targetLat,
			Lon:        targetLon,
			BearingDeg: bearing,
		},
		Address:  address,
		Panorama: panorama,
		Debug: models.DebugInfo{
			Method:           method,
			DeltaYawDeg:      deltaYaw,
			AssumedDistanceM: distance,
			Notes:            notes,
		},
	}, nil
}
