// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package providers

import (
	"context"
	"math"

	"github.com/sightlinehq/sightline/internal/geo"
)

// Candidate is one panorama returned by a provider lookup. CompassAngle
// is nil when the provider does not report a capture heading.
type Candidate struct {
	Lat          float64
	Lon          float64
	CompassAngle *float64
	ThumbnailURL string
	Meta         map[string]any
}

// PanoramaProvider finds street-level imagery near a point. An
// unconfigured provider reports Configured() == false and is skipped by
// the selector without being called.
type PanoramaProvider interface {
	// Name is the provider tag used in priority lists and responses.
	Name() string
	// Configured reports whether credentials are present.
	Configured() bool
	// FindNearby returns candidate panoramas near (lat, lon) within
	// radiusM meters. bearingDeg is the target viewing direction, used
	// where the provider builds heading-dependent thumbnail URLs.
	FindNearby(ctx context.Context, lat, lon, bearingDeg, radiusM float64) ([]Candidate, error)
}

// score ranks a candidate against the target bearing and position:
// absolute heading mismatch in degrees plus great-circle distance with
// 5 meters weighted as one degree. A candidate without a compass angle
// gets the worst possible score.
func score(c Candidate, bearingDeg, lat, lon float64) float64 {
	if c.CompassAngle == nil {
		return math.Inf(1)
	}
	deltaHeading := math.Abs(geo.WrapDelta(bearingDeg - *c.CompassAngle))
	deltaDistance := geo.HaversineDistance(lat, lon, c.Lat, c.Lon)
	return deltaHeading + deltaDistance/5.0
}
