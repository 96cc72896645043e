// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

// Package config loads and validates application configuration from
// layered sources: built-in defaults, an optional YAML file, and
// environment variables, with the environment taking precedence.
package config
