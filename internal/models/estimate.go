// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package models

import (
	"errors"
	"strings"
)

// Supported panorama providers, in the default priority order.
const (
	ProviderGoogle    = "google"
	ProviderMapillary = "mapillary"
)

// ErrNoGeometrySource indicates a request that carries neither an HFOV
// angle nor a usable fx/cx intrinsics pair.
var ErrNoGeometrySource = errors.New("either hfov_deg or both fx and cx must be provided")

// BoundingBox is an axis-aligned box in image-pixel coordinates.
type BoundingBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w" validate:"gt=0"`
	H float64 `json:"h" validate:"gt=0"`
}

// Center returns the (u, v) pixel center of the box. The vertical
// coordinate is reported for completeness but feeds no angle math yet.
func (b BoundingBox) Center() (u, v float64) {
	return b.X + b.W/2.0, b.Y + b.H/2.0
}

// EstimationRequest is the inbound payload for both the estimate and
// bearing endpoints. Exactly one geometry source must be resolvable:
// either HFOVDeg, or the Fx/Cx intrinsics pair.
type EstimationRequest struct {
	ImageWidth       int         `json:"image_width" validate:"required,gt=0"`
	ImageHeight      int         `json:"image_height" validate:"required,gt=0"`
	HFOVDeg          *float64    `json:"hfov_deg,omitempty" validate:"omitempty,gt=0,lt=360"`
	CameraLat        float64     `json:"camera_lat" validate:"gte=-90,lte=90"`
	CameraLon        float64     `json:"camera_lon" validate:"gte=-180,lte=180"`
	CameraHeadingDeg float64     `json:"camera_heading_deg"`
	BBox             BoundingBox `json:"bbox" validate:"required"`
	Fx               *float64    `json:"fx,omitempty" validate:"omitempty,gt=0"`
	Fy               *float64    `json:"fy,omitempty" validate:"omitempty,gt=0"`
	Cx               *float64    `json:"cx,omitempty"`
	Cy               *float64    `json:"cy,omitempty"`
	AssumedDistanceM *float64    `json:"assumed_distance_m,omitempty" validate:"omitempty,gt=0"`
	ProviderPriority []string    `json:"provider_priority,omitempty"`
	RadiusM          *float64    `json:"radius_m,omitempty" validate:"omitempty,gt=0"`
}

// Normalize enforces the request's structural invariants after decode:
// the geometry-source alternative must resolve, and the provider list
// is lowercased, deduplicated, and restricted to the supported set with
// order preserved. An absent provider list falls back to the default
// priority order.
func (r *EstimationRequest) Normalize() error {
	if r.HFOVDeg == nil && (r.Fx == nil || r.Cx == nil) {
		return ErrNoGeometrySource
	}

	providers := r.ProviderPriority
	if providers == nil {
		providers = []string{ProviderGoogle, ProviderMapillary}
	}
	normalized := make([]string, 0, len(providers))
	for _, provider := range providers {
		p := strings.ToLower(provider)
		if p != ProviderGoogle && p != ProviderMapillary {
			continue
		}
		seen := false
		for _, existing := range normalized {
			if existing == p {
				seen = true
				break
			}
		}
		if !seen {
			normalized = append(normalized, p)
		}
	}
	r.ProviderPriority = normalized
	return nil
}

// EstimatedPoint is the projected geographic result. Bearing is always
// normalized to [0, 360).
type EstimatedPoint struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	BearingDeg float64 `json:"bearing_deg"`
}

// AddressInfo carries the reverse-geocoded address. It is always present
// in a response; an empty display name with an "error" component signals
// a degraded (non-fatal) geocoding failure.
type AddressInfo struct {
	DisplayName string         `json:"display_name,omitempty"`
	Components  map[string]any `json:"components"`
}

// PanoramaInfo carries the selected street-level panorama. Provider is
// empty when no configured provider produced a result.
type PanoramaInfo struct {
	Provider     string         `json:"provider,omitempty"`
	Meta         map[string]any `json:"meta"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
}

// DebugInfo records how the estimate was computed.
type DebugInfo struct {
	Method           string   `json:"method"`
	DeltaYawDeg      float64  `json:"delta_yaw_deg"`
	AssumedDistanceM float64  `json:"assumed_distance_m"`
	Notes            []string `json:"notes"`
}

// EstimateResponse is the full pipeline output.
type EstimateResponse struct {
	EstimatedPoint EstimatedPoint `json:"estimated_point"`
	Address        AddressInfo    `json:"address"`
	Panorama       PanoramaInfo   `json:"panorama"`
	Debug          DebugInfo      `json:"debug"`
}

// BearingResponse is the output of the bearing-only endpoint.
type BearingResponse struct {
	BearingDeg float64 `json:"bearing_deg"`
}
