// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/sightlinehq/sightline/internal/geo"
	"github.com/sightlinehq/sightline/internal/models"
	"github.com/sightlinehq/sightline/internal/pipeline"
)

// Handler holds the process-scoped services the endpoints delegate to.
type Handler struct {
	pipeline *pipeline.Pipeline
	// providers configured at startup, reported by the readiness probe.
	configuredProviders []string
	version             string
}

// NewHandler builds the endpoint handler set.
func NewHandler(p *pipeline.Pipeline, configuredProviders []string, version string) *Handler {
	return &Handler{
		pipeline:            p,
		configuredProviders: configuredProviders,
		version:             version,
	}
}

// parseEstimationRequest decodes, normalizes, and validates the shared
// request body of the estimate and bearing endpoints. On failure it has
// already written the 400 response and returns nil.
func (h *Handler) parseEstimationRequest(w http.ResponseWriter, r *http.Request) *models.EstimationRequest {
	var req models.EstimationRequest
	if err := decodeRequest(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return nil
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return nil
	}
	if err := req.Normalize(); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return nil
	}
	return &req
}

// Estimate handles POST /api/v1/estimate: the full geolocation and
// enrichment pipeline.
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := h.parseEstimationRequest(w, r)
	if req == nil {
		return
	}

	resp, err := h.pipeline.Run(r.Context(), req)
	switch {
	case err == nil:
		respondSuccess(w, http.StatusOK, resp, start)
	case errors.Is(err, pipeline.ErrPipelineTimeout):
		respondError(w, http.StatusGatewayTimeout, "PIPELINE_TIMEOUT", "Pipeline timed out", nil)
	case errors.Is(err, geo.ErrNoGeometrySource):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	default:
		respondError(w, http.StatusBadGateway, "INTERNAL_ERROR", err.Error(), nil)
	}
}

// Bearing handles POST /api/v1/bearing: bearing math only, no
// projection or enrichment.
func (h *Handler) Bearing(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := h.parseEstimationRequest(w, r)
	if req == nil {
		return
	}

	bearing, err := h.pipeline.Bearing(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	respondSuccess(w, http.StatusOK, models.BearingResponse{BearingDeg: bearing}, start)
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": h.version,
	}, time.Now())
}

// HealthLive handles GET /api/v1/health/live. The process is alive if
// it can serve this response.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{"status": "alive"}, time.Now())
}

// HealthReady handles GET /api/v1/health/ready, reporting which
// panorama providers hold credentials. The service stays ready with
// zero providers; estimates then return empty panoramas.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	providers := h.configuredProviders
	if providers == nil {
		providers = []string{}
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"providers": providers,
	}, time.Now())
}
