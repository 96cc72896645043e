// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

// Package providers contains the clients for the external enrichment
// services: Nominatim reverse geocoding, Google Street View, and
// Mapillary, plus the selector that walks panorama providers in the
// caller's priority order.
//
// All upstream traffic goes through the outbound gateway, which owns
// timeouts, retries, rate limiting, and circuit breaking. Failures never
// escape this package as errors: geocoding degrades to an AddressInfo
// with a diagnostic component, and panorama lookups degrade to "skip
// this provider, try the next".
package providers
