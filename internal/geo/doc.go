// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

// Package geo implements the bearing and geodesic mathematics used by the
// estimation pipeline: angle normalization, bearing from an image-space
// bounding box via pinhole intrinsics or a horizontal field-of-view
// heuristic, Vincenty's direct geodesic solution on the WGS84 ellipsoid,
// and great-circle distance for candidate scoring.
//
// The package is pure computation: no I/O, no shared state.
package geo
