// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/sightlinehq/sightline/internal/config"
	"github.com/sightlinehq/sightline/internal/models"
	"github.com/sightlinehq/sightline/internal/pipeline"
)

type stubGeocoder struct{}

func (stubGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) models.AddressInfo {
	return models.AddressInfo{DisplayName: "stub street", Components: map[string]any{}}
}

type stubSelector struct {
	delay time.Duration
}

func (s stubSelector) Choose(ctx context.Context, lat, lon, bearingDeg, radiusM float64, priority []string) models.PanoramaInfo {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}
	return models.PanoramaInfo{Provider: "google", Meta: map[string]any{}, ThumbnailURL: "https://img"}
}

func newTestServer(t *testing.T, opts pipeline.Options, selector pipeline.PanoramaSelector) *httptest.Server {
	t.Helper()
	p := pipeline.New(stubGeocoder{}, selector, opts)
	handler := NewHandler(p, []string{"google"}, "test")
	router := NewRouter(handler, config.SecurityConfig{
		CORSOrigins:       []string{"*"},
		RateLimitDisabled: true,
	})
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv
}

func defaultTestServer(t *testing.T) *httptest.Server {
	opts := pipeline.DefaultOptions()
	opts.Deadline = time.Second
	return newTestServer(t, opts, stubSelector{})
}

const validBody = `{
	"image_width": 200,
	"image_height": 100,
	"hfov_deg": 90,
	"camera_lat": 52.52,
	"camera_lon": 13.405,
	"camera_heading_deg": 180,
	"bbox": {"x": 0, "y": 0, "w": 100, "h": 100}
}`

func postJSON(t *testing.T, url, body string) (*http.Response, models.APIResponse) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var envelope models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	return resp, envelope
}

func TestEstimate_Success(t *testing.T) {
	srv := defaultTestServer(t)

	resp, envelope := postJSON(t, srv.URL+"/api/v1/estimate", validBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if envelope.Status != "success" {
		t.Errorf("envelope status = %q", envelope.Status)
	}

	data, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("data has type %T", envelope.Data)
	}
	point, ok := data["estimated_point"].(map[string]any)
	if !ok {
		t.Fatal("data missing estimated_point")
	}
	if bearing := point["bearing_deg"].(float64); bearing != 180.0 {
		t.Errorf("bearing_deg = %v, want 180", bearing)
	}
	if _, ok := data["address"]; !ok {
		t.Error("data missing address")
	}
	if _, ok := data["panorama"]; !ok {
		t.Error("data missing panorama")
	}
}

func TestEstimate_MalformedBody(t *testing.T) {
	srv := defaultTestServer(t)

	resp, envelope := postJSON(t, srv.URL+"/api/v1/estimate", "{not json")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != "INVALID_REQUEST" {
		t.Errorf("error = %+v, want INVALID_REQUEST", envelope.Error)
	}
}

func TestEstimate_MissingGeometrySource(t *testing.T) {
	srv := defaultTestServer(t)

	body := strings.Replace(validBody, `"hfov_deg": 90,`, "", 1)
	resp, envelope := postJSON(t, srv.URL+"/api/v1/estimate", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", envelope.Error)
	}
}

func TestEstimate_FieldValidation(t *testing.T) {
	srv := defaultTestServer(t)

	body := strings.Replace(validBody, `"image_width": 200`, `"image_width": 0`, 1)
	resp, envelope := postJSON(t, srv.URL+"/api/v1/estimate", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", envelope.Error)
	}
}

func TestEstimate_Timeout(t *testing.T) {
	opts := pipeline.DefaultOptions()
	opts.Deadline = 50 * time.Millisecond
	srv := newTestServer(t, opts, stubSelector{delay: 5 * time.Second})

	resp, envelope := postJSON(t, srv.URL+"/api/v1/estimate", validBody)
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != "PIPELINE_TIMEOUT" {
		t.Errorf("error = %+v, want PIPELINE_TIMEOUT", envelope.Error)
	}
	if envelope.Data != nil {
		t.Error("timed-out response must not carry partial data")
	}
}

func TestBearing_Success(t *testing.T) {
	srv := defaultTestServer(t)

	resp, envelope := postJSON(t, srv.URL+"/api/v1/bearing", validBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("data has type %T", envelope.Data)
	}
	if bearing := data["bearing_deg"].(float64); bearing != 180.0 {
		t.Errorf("bearing_deg = %v, want 180", bearing)
	}
}

func TestBearing_MissingGeometrySource(t *testing.T) {
	srv := defaultTestServer(t)

	body := strings.Replace(validBody, `"hfov_deg": 90,`, "", 1)
	resp, envelope := postJSON(t, srv.URL+"/api/v1/bearing", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil {
		t.Fatal("expected error payload")
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := defaultTestServer(t)

	for _, path := range []string{"/api/v1/health", "/api/v1/health/live", "/api/v1/health/ready"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestHealthReady_ReportsProviders(t *testing.T) {
	srv := defaultTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/health/ready")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var envelope models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatal(err)
	}
	data := envelope.Data.(map[string]any)
	providers, ok := data["providers"].([]any)
	if !ok || len(providers) != 1 || providers[0] != "google" {
		t.Errorf("providers = %v, want [google]", data["providers"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := defaultTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want 200", resp.StatusCode)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	srv := defaultTestServer(t)

	resp, _ := postJSON(t, srv.URL+"/api/v1/bearing", validBody)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing from response")
	}
}
