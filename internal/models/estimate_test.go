// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package models

import (
	"errors"
	"reflect"
	"testing"

	json "github.com/goccy/go-json"
)

func fptr(v float64) *float64 { return &v }

func TestBoundingBox_Center(t *testing.T) {
	b := BoundingBox{X: 10, Y: 20, W: 100, H: 60}
	u, v := b.Center()
	if u != 60 || v != 50 {
		t.Errorf("Center() = (%v, %v), want (60, 50)", u, v)
	}
}

func TestEstimationRequest_Normalize(t *testing.T) {
	tests := []struct {
		name          string
		req           EstimationRequest
		wantErr       error
		wantProviders []string
	}{
		{
			name: "hfov only",
			req: EstimationRequest{
				HFOVDeg: fptr(90),
			},
			wantProviders: []string{"google", "mapillary"},
		},
		{
			name: "intrinsics only",
			req: EstimationRequest{
				Fx: fptr(1000), Cx: fptr(960),
			},
			wantProviders: []string{"google", "mapillary"},
		},
		{
			name:    "no geometry source",
			req:     EstimationRequest{},
			wantErr: ErrNoGeometrySource,
		},
		{
			name: "fx without cx",
			req: EstimationRequest{
				Fx: fptr(1000),
			},
			wantErr: ErrNoGeometrySource,
		},
		{
			name: "providers deduplicated and lowercased",
			req: EstimationRequest{
				HFOVDeg:          fptr(90),
				ProviderPriority: []string{"Mapillary", "GOOGLE", "mapillary"},
			},
			wantProviders: []string{"mapillary", "google"},
		},
		{
			name: "unsupported providers dropped",
			req: EstimationRequest{
				HFOVDeg:          fptr(90),
				ProviderPriority: []string{"bing", "google", "kartaview"},
			},
			wantProviders: []string{"google"},
		},
		{
			name: "explicit empty list stays empty",
			req: EstimationRequest{
				HFOVDeg:          fptr(90),
				ProviderPriority: []string{},
			},
			wantProviders: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Normalize()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Normalize() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(tt.req.ProviderPriority, tt.wantProviders) {
				t.Errorf("ProviderPriority = %v, want %v", tt.req.ProviderPriority, tt.wantProviders)
			}
		})
	}
}

func TestEstimationRequest_JSONRoundTrip(t *testing.T) {
	original := EstimationRequest{
		ImageWidth:       1920,
		ImageHeight:      1080,
		HFOVDeg:          fptr(120),
		CameraLat:        10.0,
		CameraLon:        20.0,
		CameraHeadingDeg: 45.0,
		BBox:             BoundingBox{X: 0, Y: 0, W: 100, H: 200},
		AssumedDistanceM: fptr(15.0),
		ProviderPriority: []string{"google", "mapillary"},
		RadiusM:          fptr(50.0),
	}

	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var parsed EstimationRequest
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(parsed, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", parsed, original)
	}
}

func TestEstimateResponse_JSONShape(t *testing.T) {
	resp := EstimateResponse{
		EstimatedPoint: EstimatedPoint{Lat: 1.5, Lon: 2.5, BearingDeg: 90},
		Address:        AddressInfo{Components: map[string]any{}},
		Panorama:       PanoramaInfo{Meta: map[string]any{}},
		Debug: DebugInfo{
			Method:           "hfov",
			AssumedDistanceM: 20.0,
			Notes:            []string{"n"},
		},
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"estimated_point", "address", "panorama", "debug"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("response JSON missing %q", key)
		}
	}
	// Degraded enrichment is empty, not absent.
	addr := decoded["address"].(map[string]any)
	if _, ok := addr["components"]; !ok {
		t.Error("address.components should serialize even when empty")
	}
}
