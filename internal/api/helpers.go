// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/sightlinehq/sightline/internal/logging"
	"github.com/sightlinehq/sightline/internal/models"
	"github.com/sightlinehq/sightline/internal/validation"
)

// maxRequestBody caps inbound payload size.
const maxRequestBody = 1 << 20 // 1MB

// sanitizeLogValue strips control characters so upstream-supplied
// strings cannot forge log entries.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON writes the envelope with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess wraps data in a success envelope.
func respondSuccess(w http.ResponseWriter, status int, data interface{}, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:  time.Now(),
			DurationMS: time.Since(start).Milliseconds(),
		},
	})
}

// respondError wraps an error in the envelope, logging server-side causes.
func respondError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	if status >= http.StatusInternalServerError {
		logging.Error().
			Str("code", sanitizeLogValue(code)).
			Str("message", sanitizeLogValue(message)).
			Int("status", status).
			Msg("API error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// decodeRequest parses the JSON body into v, bounding the read size.
func decodeRequest(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	if len(body) == 0 {
		return fmt.Errorf("empty request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing request body: %w", err)
	}
	return nil
}

// validateRequest runs struct validation, translated to the API error shape.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}
	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}
