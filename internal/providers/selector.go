// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package providers

import (
	"context"

	"github.com/sightlinehq/sightline/internal/logging"
	"github.com/sightlinehq/sightline/internal/metrics"
	"github.com/sightlinehq/sightline/internal/models"
)

// Selector walks panorama providers in the caller's priority order and
// returns the first provider's best candidate. Provider failures and
// unconfigured providers are skipped, never surfaced.
type Selector struct {
	providers map[string]PanoramaProvider
}

// NewSelector registers the given providers under their names.
func NewSelector(providers ...PanoramaProvider) *Selector {
	byName := make(map[string]PanoramaProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Selector{providers: byName}
}

// Choose evaluates the priority order first-match-wins. Candidates from
// the winning provider are ranked by heading mismatch plus weighted
// distance; the lowest score wins, ties going to the earliest candidate.
// When every provider yields nothing the zero PanoramaInfo is returned
// with an empty meta map.
func (s *Selector) Choose(ctx context.Context, lat, lon, bearingDeg, radiusM float64, priority []string) models.PanoramaInfo {
	for _, name := range priority {
		provider, ok := s.providers[name]
		if !ok || !provider.Configured() {
			continue
		}

		candidates, err := provider.FindNearby(ctx, lat, lon, bearingDeg, radiusM)
		if err != nil {
			logging.Warn().
				Err(err).
				Str("provider", name).
				Msg("Panorama provider skipped")
			continue
		}
		if len(candidates) == 0 {
			continue
		}

		best := candidates[0]
		bestScore := score(best, bearingDeg, lat, lon)
		for _, c := range candidates[1:] {
			if sc := score(c, bearingDeg, lat, lon); sc < bestScore {
				best, bestScore = c, sc
			}
		}

		metrics.RecordPanoramaSelection(name)
		meta := best.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		return models.PanoramaInfo{
			Provider:     name,
			Meta:         meta,
			ThumbnailURL: best.ThumbnailURL,
		}
	}

	metrics.RecordPanoramaSelection("")
	return models.PanoramaInfo{Meta: map[string]any{}}
}
