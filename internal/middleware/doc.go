// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

// Package middleware provides the HTTP middleware the API router mounts
// around every endpoint: request-ID propagation for log correlation,
// Prometheus request instrumentation, and gzip response compression.
// Cross-cutting inbound policy (CORS, per-IP rate limiting, panic
// recovery) comes from the chi ecosystem and is wired in the api
// package.
package middleware
