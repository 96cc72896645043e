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

func floatPtr(f float64) *float64 { return &f }

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"zero", 0, 0},
		{"in range", 45.5, 45.5},
		{"exactly 360", 360, 0},
		{"above 360", 370, 10},
		{"negative", -90, 270},
		{"large negative", -720, 0},
		{"large positive", 1085, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAngle(tt.input)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeAngle_Periodicity(t *testing.T) {
	// normalizeAngle(x + 360k) == normalizeAngle(x)
	for _, x := range []float64{0, 13.7, 180, 359.99, -45.2, 250} {
		base := NormalizeAngle(x)
		for _, k := range []float64{-3, -1, 1, 2, 10} {
			got := NormalizeAngle(x + 360*k)
			if math.Abs(got-base) > 1e-9 {
				t.Errorf("NormalizeAngle(%v + 360*%v) = %v, want %v", x, k, got, base)
			}
		}
	}
}

func TestWrapDelta(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"zero", 0, 0},
		{"small positive", 10, 10},
		{"small negative", -10, -10},
		{"exactly 180", 180, 180},
		{"exactly -180 maps to 180", -180, 180},
		{"past 180", 190, -170},
		{"past -180", -190, 170},
		{"full turn", 360, 0},
		{"one and a half turns", 540, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapDelta(tt.input)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("WrapDelta(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWrapDelta_Range(t *testing.T) {
	// Output always lies in (-180, 180].
	for d := -1080.0; d <= 1080.0; d += 7.3 {
		got := WrapDelta(d)
		if got <= -180 || got > 180 {
			t.Errorf("WrapDelta(%v) = %v, outside (-180, 180]", d, got)
		}
	}
}

func TestBearingFromBBox_HFOV(t *testing.T) {
	// Center pixel of a 200px-wide image with 90 degree HFOV and heading 180:
	// zero yaw offset, bearing == heading.
	bearing, method, err := BearingFromBBox(BearingInput{
		U:          50, // center of bbox {x:0, w:100}
		ImageWidth: 200,
		HeadingDeg: 180,
		HFOVDeg:    floatPtr(90),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != MethodHFOV {
		t.Errorf("method = %q, want %q", method, MethodHFOV)
	}
	// u=50 is a quarter of the image left of center: -45/2 = -22.5 offset.
	want := NormalizeAngle(180 + (50-100)*90.0/200.0)
	if math.Abs(bearing-want) > 1e-9 {
		t.Errorf("bearing = %v, want %v", bearing, want)
	}
}

func TestBearingFromBBox_HFOVCenterPixel(t *testing.T) {
	bearing, _, err := BearingFromBBox(BearingInput{
		U:          100,
		ImageWidth: 200,
		HeadingDeg: 180,
		HFOVDeg:    floatPtr(90),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(bearing-180.0) > 1e-9 {
		t.Errorf("center-pixel bearing = %v, want 180.0", bearing)
	}
}

func TestBearingFromBBox_Intrinsics(t *testing.T) {
	// u == cx means target is aligned with the optical axis.
	bearing, method, err := BearingFromBBox(BearingInput{
		U:          320,
		ImageWidth: 640,
		HeadingDeg: 90,
		Fx:         floatPtr(500),
		Cx:         floatPtr(320),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != MethodIntrinsics {
		t.Errorf("method = %q, want %q", method, MethodIntrinsics)
	}
	if math.Abs(bearing-90.0) > 1e-9 {
		t.Errorf("bearing = %v, want 90.0", bearing)
	}
}

func TestBearingFromBBox_IntrinsicsOffset(t *testing.T) {
	// atan2(100, 100) = 45 degrees right of heading.
	bearing, _, err := BearingFromBBox(BearingInput{
		U:          420,
		ImageWidth: 640,
		HeadingDeg: 350,
		Fx:         floatPtr(100),
		Cx:         floatPtr(320),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(bearing-35.0) > 1e-9 {
		t.Errorf("bearing = %v, want 35.0", bearing)
	}
}

func TestBearingFromBBox_IntrinsicsPreferredOverHFOV(t *testing.T) {
	// When both sources are present, intrinsics win.
	_, method, err := BearingFromBBox(BearingInput{
		U:          100,
		ImageWidth: 200,
		HeadingDeg: 0,
		HFOVDeg:    floatPtr(90),
		Fx:         floatPtr(500),
		Cx:         floatPtr(100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != MethodIntrinsics {
		t.Errorf("method = %q, want %q", method, MethodIntrinsics)
	}
}

func TestBearingFromBBox_NoGeometrySource(t *testing.T) {
	tests := []struct {
		name string
		in   BearingInput
	}{
		{"nothing provided", BearingInput{U: 10, ImageWidth: 100, HeadingDeg: 0}},
		{"fx without cx", BearingInput{U: 10, ImageWidth: 100, Fx: floatPtr(500)}},
		{"cx without fx", BearingInput{U: 10, ImageWidth: 100, Cx: floatPtr(50)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := BearingFromBBox(tt.in)
			if !errors.Is(err, ErrNoGeometrySource) {
				t.Errorf("err = %v, want ErrNoGeometrySource", err)
			}
		})
	}
}

func TestAngularDifference(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{0, 0, 0},
		{10, 40, 30},
		{40, 10, 30},
		{350, 10, 20},
		{10, 350, 20},
		{0, 180, 180},
	}

	for _, tt := range tests {
		if got := AngularDifference(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("AngularDifference(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
