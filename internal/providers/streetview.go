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

	"github.com/sightlinehq/sightline/internal/geo"
	"github.com/sightlinehq/sightline/internal/models"
	"github.com/sightlinehq/sightline/internal/outbound"
)

// ThumbnailOptions controls the Street View Static API image request
// built client-side for a selected panorama.
type ThumbnailOptions struct {
	Width  int
	Height int
	FOV    int
	Pitch  int
}

// DefaultThumbnailOptions matches the Street View Static API defaults
// used for detection review thumbnails.
func DefaultThumbnailOptions() ThumbnailOptions {
	return ThumbnailOptions{Width: 640, Height: 400, FOV: 80, Pitch: 0}
}

// StreetView queries the Google Street View metadata endpoint and builds
// unsigned Static API thumbnail URLs. Without an API key the provider
// reports unconfigured and is never called.
type StreetView struct {
	client  *outbound.Client
	baseURL string
	apiKey  string
	thumb   ThumbnailOptions
}

// NewStreetView builds the Google provider. baseURL is the Static API
// root without the /metadata suffix.
func NewStreetView(client *outbound.Client, baseURL, apiKey string, thumb ThumbnailOptions) *StreetView {
	return &StreetView{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		thumb:   thumb,
	}
}

// Name implements PanoramaProvider.
func (s *StreetView) Name() string { return models.ProviderGoogle }

// Configured implements PanoramaProvider.
func (s *StreetView) Configured() bool { return s.apiKey != "" }

// svMetadata mirrors the fields consumed from the metadata response.
// Location fields are pointers: the endpoint can answer OK without a
// location object, in which case the target point stands in.
type svMetadata struct {
	Status   string `json:"status"`
	PanoID   string `json:"pano_id"`
	Location struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	} `json:"location"`
}

// FindNearby looks up panorama metadata near the point. The metadata
// endpoint is free and returns at most one panorama; a non-OK status
// means no imagery within the radius.
func (s *StreetView) FindNearby(ctx context.Context, lat, lon, bearingDeg, radiusM float64) ([]Candidate, error) {
	params := url.Values{
		"location": {fmt.Sprintf("%v,%v", lat, lon)},
		"radius":   {strconv.FormatFloat(radiusM, 'f', -1, 64)},
		"key":      {s.apiKey},
	}
	body, err := s.client.Get(ctx, s.baseURL+"/metadata", params, nil, models.ProviderGoogle)
	if err != nil {
		return nil, err
	}

	var meta svMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("street view metadata: %w", err)
	}
	if meta.Status != "OK" {
		return nil, nil
	}

	var rawMeta map[string]any
	if err := json.Unmarshal(body, &rawMeta); err != nil {
		rawMeta = map[string]any{}
	}

	panoLat, panoLon := lat, lon
	if meta.Location.Lat != nil {
		panoLat = *meta.Location.Lat
	}
	if meta.Location.Lng != nil {
		panoLon = *meta.Location.Lng
	}
	return []Candidate{{
		Lat:          panoLat,
		Lon:          panoLon,
		ThumbnailURL: s.thumbnailURL(meta.PanoID, panoLat, panoLon, bearingDeg),
		Meta:         rawMeta,
	}}, nil
}

// thumbnailURL builds an unsigned Street View Static API request URL,
// preferring the panorama id over raw coordinates when available.
func (s *StreetView) thumbnailURL(panoID string, lat, lon, headingDeg float64) string {
	params := url.Values{
		"size":    {fmt.Sprintf("%dx%d", s.thumb.Width, s.thumb.Height)},
		"fov":     {strconv.Itoa(s.thumb.FOV)},
		"heading": {strconv.FormatFloat(geo.NormalizeAngle(headingDeg), 'f', -1, 64)},
		"pitch":   {strconv.Itoa(s.thumb.Pitch)},
		"key":     {s.apiKey},
	}
	if panoID != "" {
		params.Set("pano", panoID)
	} else {
		params.Set("location", fmt.Sprintf("%v,%v", lat, lon))
	}
	return s.baseURL + "?" + params.Encode()
}
