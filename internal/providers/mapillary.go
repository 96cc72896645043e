// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/sightlinehq/sightline/internal/models"
	"github.com/sightlinehq/sightline/internal/outbound"
)

// mapillaryLimit caps how many nearby images one lookup requests.
const mapillaryLimit = 5

// mapillaryFields lists the Graph API fields fetched per image.
const mapillaryFields = "id,compass_angle,captured_at,geometry,thumb_1024_url"

// Mapillary searches the Graph API v4 for imagery captured near a point.
// Without an access token the provider reports unconfigured.
type Mapillary struct {
	client  *outbound.Client
	baseURL string
	token   string
}

// NewMapillary builds the Mapillary provider.
func NewMapillary(client *outbound.Client, baseURL, token string) *Mapillary {
	return &Mapillary{
		client:  client,
		baseURL: baseURL,
		token:   token,
	}
}

// Name implements PanoramaProvider.
func (m *Mapillary) Name() string { return models.ProviderMapillary }

// Configured implements PanoramaProvider.
func (m *Mapillary) Configured() bool { return m.token != "" }

// mapillaryImage mirrors the fields consumed from a Graph API image.
type mapillaryImage struct {
	ID           string   `json:"id"`
	CompassAngle *float64 `json:"compass_angle"`
	CapturedAt   any      `json:"captured_at"`
	Geometry     struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Thumb1024URL string `json:"thumb_1024_url"`
}

// FindNearby fetches up to mapillaryLimit images captured within
// radiusM of the point. Geometry coordinates arrive GeoJSON-style as
// [lon, lat].
func (m *Mapillary) FindNearby(ctx context.Context, lat, lon, bearingDeg, radiusM float64) ([]Candidate, error) {
	params := url.Values{
		"access_token": {m.token},
		"fields":       {mapillaryFields},
		"limit":        {strconv.Itoa(mapillaryLimit)},
		"radius":       {strconv.FormatFloat(radiusM, 'f', -1, 64)},
		"closeto":      {fmt.Sprintf("%v,%v", lon, lat)},
	}
	body, err := m.client.Get(ctx, m.baseURL+"/images", params, nil, models.ProviderMapillary)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("mapillary images: %w", err)
	}

	candidates := make([]Candidate, 0, len(payload.Data))
	for _, raw := range payload.Data {
		var img mapillaryImage
		if err := json.Unmarshal(raw, &img); err != nil {
			continue
		}
		candidate := Candidate{
			Lat:          lat,
			Lon:          lon,
			CompassAngle: img.CompassAngle,
			ThumbnailURL: img.Thumb1024URL,
		}
		if len(img.Geometry.Coordinates) >= 2 {
			candidate.Lon = img.Geometry.Coordinates[0]
			candidate.Lat = img.Geometry.Coordinates[1]
		}
		var meta map[string]any
		if err := json.Unmarshal(raw, &meta); err == nil {
			candidate.Meta = meta
		} else {
			candidate.Meta = map[string]any{}
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}
