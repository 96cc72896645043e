// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package providers

import (
	"context"
	"net/url"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/sightlinehq/sightline/internal/cache"
	"github.com/sightlinehq/sightline/internal/logging"
	"github.com/sightlinehq/sightline/internal/metrics"
	"github.com/sightlinehq/sightline/internal/models"
	"github.com/sightlinehq/sightline/internal/outbound"
)

// rateKeyNominatim is the limiter and breaker key for geocoding traffic.
const rateKeyNominatim = "nominatim"

// Geocoder reverse-geocodes a coordinate against Nominatim. Lookups are
// best-effort: any failure is absorbed into a degraded AddressInfo with
// a diagnostic "error" component, never returned as an error.
type Geocoder struct {
	client  *outbound.Client
	baseURL string
	email   string
	cache   *cache.Cache
}

// NewGeocoder builds a Geocoder. cache may be nil to disable caching.
func NewGeocoder(client *outbound.Client, baseURL, email string, c *cache.Cache) *Geocoder {
	return &Geocoder{
		client:  client,
		baseURL: baseURL,
		email:   email,
		cache:   c,
	}
}

// nominatimReverse mirrors the fields consumed from the jsonv2 response.
type nominatimReverse struct {
	DisplayName string         `json:"display_name"`
	Address     map[string]any `json:"address"`
}

// ReverseGeocode resolves lat/lon to the nearest named feature.
// Nominatim returns the nearest suitable feature, not an exact match.
func (g *Geocoder) ReverseGeocode(ctx context.Context, lat, lon float64) models.AddressInfo {
	key := cache.CoordinateKey("geocode", lat, lon)
	if g.cache != nil {
		if cached, ok := g.cache.Get(key); ok {
			metrics.RecordGeocodeCache(true)
			if info, ok := cached.(models.AddressInfo); ok {
				return info
			}
		}
		metrics.RecordGeocodeCache(false)
	}

	params := url.Values{
		"format":         {"jsonv2"},
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"zoom":           {"18"},
		"addressdetails": {"1"},
	}
	if g.email != "" {
		params.Set("email", g.email)
	}

	body, err := g.client.Get(ctx, g.baseURL+"/reverse", params, nil, rateKeyNominatim)
	if err != nil {
		logging.Warn().
			Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("Reverse geocoding degraded")
		return models.AddressInfo{
			Components: map[string]any{"error": err.Error()},
		}
	}

	var payload nominatimReverse
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.AddressInfo{
			Components: map[string]any{"error": err.Error()},
		}
	}

	components := payload.Address
	if components == nil {
		components = map[string]any{}
	}
	info := models.AddressInfo{
		DisplayName: payload.DisplayName,
		Components:  components,
	}
	if g.cache != nil {
		g.cache.Set(key, info)
	}
	return info
}
