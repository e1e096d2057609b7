// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

import (
	"context"

	"github.com/listarr/listarr/internal/domain"
	"github.com/listarr/listarr/internal/httpclient"
	"github.com/listarr/listarr/pkg/titles"
)

// NewRadarr builds the movie adapter.
func NewRadarr(cfg domain.RadarrConfig, hc *httpclient.Client) *Adapter {
	return NewAdapter(cfg.ArrConfig, &radarrTarget{cfg: cfg}, hc)
}

type radarrTarget struct {
	cfg domain.RadarrConfig
}

func (t *radarrTarget) Kind() domain.MediaType { return domain.MediaTypeMovie }
func (t *radarrTarget) APIType() string        { return "movie" }
func (t *radarrTarget) APIVersion() string     { return "v3" }

func (t *radarrTarget) ItemExternalID(item Item) string {
	return item.Str("imdbId")
}

func (t *radarrTarget) ItemTitleKeys(item Item) []string {
	var keys []string
	for _, field := range []string{"title", "originalTitle"} {
		if k := titles.Normalize(item.Str(field)); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func (t *radarrTarget) NormalizeTitle(title string) string {
	return titles.Normalize(title)
}

// LookupTerms prefers the IMDb id lookup, which is exact, then falls back
// to one search per known title.
func (t *radarrTarget) LookupTerms(_ context.Context, entry *domain.ResolvedEntry) ([]string, error) {
	var terms []string
	if entry.ExternalID != "" {
		terms = append(terms, "imdb:"+entry.ExternalID)
	}
	terms = append(terms, entry.AllTitles()...)
	return terms, nil
}

func (t *radarrTarget) DecorateAddPayload(payload Item, _ *domain.ResolvedEntry, _ *domain.GenreRoute) {
	if t.cfg.MinimumAvailability != "" {
		payload["minimumAvailability"] = t.cfg.MinimumAvailability
	}
}
