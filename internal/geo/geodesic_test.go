// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package geo

import (
	"errors"
	"math"
	"testing"
)

func TestProjectGeodesic_ZeroDistance(t *testing.T) {
	// Distance 0 returns the input point exactly, for any bearing.
	for _, bearing := range []float64{0, 45, 90, 180, 270, 359.9} {
		lat, lon, err := ProjectGeodesic(48.8566, 2.3522, bearing, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lat != 48.8566 || lon != 2.3522 {
			t.Errorf("bearing %v: got (%v, %v), want input unchanged", bearing, lat, lon)
		}
	}
}

func TestProjectGeodesic_EastwardAtEquator(t *testing.T) {
	// 1000m due east from (0, 0): latitude stays ~0, longitude between
	// 0.0080 and 0.0095 degrees.
	lat, lon, err := ProjectGeodesic(0, 0, 90, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(lat) > 1e-6 {
		t.Errorf("latitude = %v, want within 1e-6 of 0", lat)
	}
	if lon <= 0.0080 || lon >= 0.0095 {
		t.Errorf("longitude = %v, want in (0.0080, 0.0095)", lon)
	}
}

func TestProjectGeodesic_NorthwardAtEquator(t *testing.T) {
	// 1000m due north: longitude unchanged, latitude ~1000/111320 degrees.
	lat, lon, err := ProjectGeodesic(0, 0, 0, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(lon) > 1e-6 {
		t.Errorf("longitude = %v, want ~0", lon)
	}
	if lat < 0.0085 || lat > 0.0095 {
		t.Errorf("latitude = %v, want roughly 0.009", lat)
	}
}

func TestProjectGeodesic_RoundTripDistance(t *testing.T) {
	// Project then measure: haversine distance back to origin should be
	// within a few meters of the requested distance for short ranges.
	const distance = 500.0
	origLat, origLon := 59.3293, 18.0686
	lat, lon, err := ProjectGeodesic(origLat, origLon, 135, distance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	measured := HaversineDistance(origLat, origLon, lat, lon)
	if math.Abs(measured-distance) > 5.0 {
		t.Errorf("measured distance = %v, want within 5m of %v", measured, distance)
	}
}

func TestProjectGeodesic_LongitudeNormalization(t *testing.T) {
	// Projection across the antimeridian wraps into [-180, 180).
	_, lon, err := ProjectGeodesic(0, 179.999, 90, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lon < -180 || lon >= 180 {
		t.Errorf("longitude = %v, want in [-180, 180)", lon)
	}
	if lon > 0 {
		t.Errorf("longitude = %v, expected wrap to negative hemisphere", lon)
	}
}

func TestProjectGeodesic_NonConvergence(t *testing.T) {
	// The direct formula converges almost immediately for physical
	// inputs, so force the error path by removing the iteration budget.
	restore := maxIterations
	maxIterations = 0
	defer func() { maxIterations = restore }()

	_, _, err := ProjectGeodesic(0, 0, 90, 1000)
	if !errors.Is(err, ErrGeodesicNonConvergence) {
		t.Fatalf("err = %v, want ErrGeodesicNonConvergence", err)
	}

	// Zero distance short-circuits before the iteration and still works.
	lat, lon, err := ProjectGeodesic(1, 2, 90, 0)
	if err != nil || lat != 1 || lon != 2 {
		t.Errorf("zero distance: (%v, %v, %v), want input unchanged", lat, lon, err)
	}
}

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantM                  float64
		tolM                   float64
	}{
		{"same point", 40.7128, -74.0060, 40.7128, -74.0060, 0, 0.001},
		{"one degree longitude at equator", 0, 0, 0, 1, 111195, 100},
		{"paris to london", 48.8566, 2.3522, 51.5074, -0.1278, 343500, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantM) > tt.tolM {
				t.Errorf("HaversineDistance = %v, want %v +/- %v", got, tt.wantM, tt.tolM)
			}
		})
	}
}
