// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package geo

import (
	"errors"
	"math"
)

// ErrNoGeometrySource indicates that neither pinhole intrinsics (fx, cx)
// nor a horizontal field of view were supplied, so no bearing can be
// computed from the bounding box.
var ErrNoGeometrySource = errors.New("geo: either fx/cx intrinsics or hfov must be provided")

// Bearing method names recorded in debug output.
const (
	MethodIntrinsics = "intrinsics"
	MethodHFOV       = "hfov"
)

// NormalizeAngle normalizes an angle in degrees to [0, 360).
func NormalizeAngle(deg float64) float64 {
	n := math.Mod(deg, 360.0)
	if n < 0 {
		n += 360.0
	}
	return n
}

// WrapDelta wraps an angle delta in degrees to (-180, 180].
// An exact result of -180 maps to +180 so the range is upper-closed.
func WrapDelta(deg float64) float64 {
	wrapped := NormalizeAngle(deg+180.0) - 180.0
	if wrapped == -180.0 {
		return 180.0
	}
	return wrapped
}

// AngularDifference returns the absolute smallest angle between two
// bearings in degrees, in [0, 180].
func AngularDifference(a, b float64) float64 {
	return math.Abs(WrapDelta(a - b))
}

// BearingInput describes a bearing computation from one pixel column of an
// image taken by a camera with a known compass heading. Exactly one of the
// two geometry sources must be resolvable: both Fx and Cx (pinhole
// intrinsics), or HFOVDeg (linear degrees-per-pixel heuristic). Intrinsics
// win when both are present.
type BearingInput struct {
	// U is the horizontal pixel coordinate of the target.
	U float64

	// ImageWidth is the image width in pixels.
	ImageWidth int

	// HeadingDeg is the camera compass heading (yaw) in degrees.
	HeadingDeg float64

	// HFOVDeg is the horizontal field of view in degrees, when intrinsics
	// are unavailable. Nil to omit.
	HFOVDeg *float64

	// Fx is the focal length in pixels. Nil to omit.
	Fx *float64

	// Cx is the principal point horizontal offset in pixels. Nil to omit.
	Cx *float64
}

// BearingFromBBox computes the absolute compass bearing of the target at
// pixel column in.U. The returned bearing is normalized to [0, 360); method
// is MethodIntrinsics or MethodHFOV depending on which geometry source was
// used. Returns ErrNoGeometrySource when neither source resolves.
func BearingFromBBox(in BearingInput) (bearing float64, method string, err error) {
	var deltaYaw float64

	switch {
	case in.Fx != nil && in.Cx != nil:
		// Pinhole model yaw from pixel column. No undistortion applied.
		deltaYaw = math.Atan2(in.U-*in.Cx, *in.Fx) * 180.0 / math.Pi
		method = MethodIntrinsics
	case in.HFOVDeg != nil:
		center := float64(in.ImageWidth) / 2.0
		degreesPerPixel := *in.HFOVDeg / float64(in.ImageWidth)
		deltaYaw = (in.U - center) * degreesPerPixel
		method = MethodHFOV
	default:
		return 0, "", ErrNoGeometrySource
	}

	return NormalizeAngle(in.HeadingDeg + deltaYaw), method, nil
}
