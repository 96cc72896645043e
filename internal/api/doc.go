// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

// Package api provides the HTTP surface: the chi router, the estimate
// and bearing handlers, health endpoints, and the Prometheus scrape
// endpoint. Error-to-status mapping is centralized here: validation
// failures map to 400, pipeline deadline expiry to 504, and internal
// computation failures to 502.
package api
