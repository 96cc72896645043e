// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

// Package metrics provides Prometheus instrumentation for the estimation
// pipeline: API latency, upstream request outcomes per provider, panorama
// selection results, and geocode cache efficiency.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Pipeline metrics.
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "End-to-end estimation pipeline duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 4, 6, 8},
		},
		[]string{"outcome"}, // "ok", "timeout", "error"
	)

	// Upstream provider metrics.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total outbound requests by provider, attempt number, and result",
		},
		[]string{"provider", "attempt", "result"},
	)

	UpstreamBreakerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_breaker_rejections_total",
			Help: "Requests rejected because a provider's circuit was open",
		},
		[]string{"provider"},
	)

	// Panorama selection metrics.
	PanoramaSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panorama_selections_total",
			Help: "Panorama selection outcomes by provider (\"none\" when empty)",
		},
		[]string{"provider"},
	)

	// Geocode cache metrics.
	GeocodeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_cache_hits_total",
			Help: "Reverse-geocode lookups served from the TTL cache",
		},
	)

	GeocodeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_cache_misses_total",
			Help: "Reverse-geocode lookups that went upstream",
		},
	)
)

// RecordAPIRequest records one served API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the active-request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPipeline records one pipeline run with its outcome label.
func RecordPipeline(outcome string, duration time.Duration) {
	PipelineDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordUpstreamRequest records one outbound attempt.
func RecordUpstreamRequest(provider string, attempt int, success bool) {
	result := "error"
	if success {
		result = "ok"
	}
	UpstreamRequestsTotal.WithLabelValues(provider, strconv.Itoa(attempt), result).Inc()
}

// RecordUpstreamBreakerRejection records a request refused by an open circuit.
func RecordUpstreamBreakerRejection(provider string) {
	UpstreamBreakerRejections.WithLabelValues(provider).Inc()
}

// RecordPanoramaSelection records which provider won the selection,
// or "none" when every provider came up empty.
func RecordPanoramaSelection(provider string) {
	if provider == "" {
		provider = "none"
	}
	PanoramaSelections.WithLabelValues(provider).Inc()
}

// RecordGeocodeCache records a cache hit or miss for reverse geocoding.
func RecordGeocodeCache(hit bool) {
	if hit {
		GeocodeCacheHits.Inc()
	} else {
		GeocodeCacheMisses.Inc()
	}
}
