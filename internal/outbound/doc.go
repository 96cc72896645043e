// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

// Package outbound is the single gateway for every HTTP call Sightline
// makes to a third-party provider. It layers, in order: a per-provider
// circuit breaker, the shared token bucket limiter (acquired before every
// attempt, retries included), a per-attempt timeout, and a bounded retry
// loop with exponential backoff. Callers above this package never retry.
package outbound
