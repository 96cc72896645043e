// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

// Package models defines the request and response types exchanged over
// the estimation API. All types are created per request and carry no
// state beyond the payload itself.
package models
