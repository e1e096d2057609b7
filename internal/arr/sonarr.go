// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

import (
	"context"
	"strings"

	"github.com/listarr/listarr/internal/domain"
	"github.com/listarr/listarr/internal/httpclient"
	"github.com/listarr/listarr/pkg/titles"
)

// NewSonarr builds the series adapter.
func NewSonarr(cfg domain.SonarrConfig, hc *httpclient.Client) *Adapter {
	return NewAdapter(cfg.ArrConfig, &sonarrTarget{cfg: cfg}, hc)
}

type sonarrTarget struct {
	cfg domain.SonarrConfig
}

func (t *sonarrTarget) Kind() domain.MediaType { return domain.MediaTypeSeries }
func (t *sonarrTarget) APIType() string        { return "series" }
func (t *sonarrTarget) APIVersion() string     { return "v3" }

func (t *sonarrTarget) ItemExternalID(item Item) string {
	return item.Str("imdbId")
}

func (t *sonarrTarget) ItemTitleKeys(item Item) []string {
	var keys []string
	for _, field := range []string{"title", "cleanTitle"} {
		if k := t.NormalizeTitle(item.Str(field)); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// NormalizeTitle compacts the title by stripping the season marker and all
// separators, so that an entry title compares equal to Sonarr's cleanTitle
// form as well as the display title.
func (t *sonarrTarget) NormalizeTitle(title string) string {
	return strings.ReplaceAll(titles.NormalizeSeries(title), " ", "")
}

// LookupTerms prefers the IMDb id lookup, then searches each known title
// with the season marker stripped: the catalog tracks a series as a whole,
// not individual seasons.
func (t *sonarrTarget) LookupTerms(_ context.Context, entry *domain.ResolvedEntry) ([]string, error) {
	var terms []string
	if entry.ExternalID != "" {
		terms = append(terms, "imdb:"+entry.ExternalID)
	}

	seen := make(map[string]bool)
	for _, title := range entry.AllTitles() {
		stripped := titles.StripSeasonSuffix(title)
		if stripped == "" || seen[stripped] {
			continue
		}
		seen[stripped] = true
		terms = append(terms, stripped)
	}
	return terms, nil
}

func (t *sonarrTarget) DecorateAddPayload(payload Item, _ *domain.ResolvedEntry, route *domain.GenreRoute) {
	if t.cfg.LanguageProfileID > 0 {
		payload["languageProfileId"] = t.cfg.LanguageProfileID
	}
	payload["seasonFolder"] = t.cfg.SeasonFolder

	seriesType := t.cfg.SeriesType
	if route != nil && route.SeriesType != "" {
		seriesType = route.SeriesType
	}
	if seriesType != "" {
		payload["seriesType"] = seriesType
	}
}
