// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package douban

import (
	"context"
	"errors"
	"fmt"
	netHTML "html"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/listarr/listarr/internal/domain"
	"github.com/listarr/listarr/pkg/titles"
)

// Detail pages carry their metadata in flat, stable markup, so fields are
// extracted with anchored expressions instead of a DOM walk.
var (
	reviewedTitleRe = regexp.MustCompile(`<span property="v:itemreviewed">(.+?)</span>`)
	imdbRe          = regexp.MustCompile(`<span class="pl">IMDb: </span>([^<]+)<br>`)
	aliasRe         = regexp.MustCompile(`<span class="pl">又名:</span>([^<]+)<br/>`)
	yearRe          = regexp.MustCompile(`<span class="year">\((\d+)\)</span>`)
	genreRe         = regexp.MustCompile(`<span\s+property="v:genre">([^<]+)</span>`)
	releaseDateRe   = regexp.MustCompile(`<span property="v:initialReleaseDate" content="(\d+-\d+-\d+)\(([^)]+)\)">`)
	seasonCountRe   = regexp.MustCompile(`<span\s*class="pl">季数:</span>\s*(\d+)<br/>`)
	episodeCountRe  = regexp.MustCompile(`<span class="pl">集数:</span>\s*(\d+)<br/>`)
)

// ErrNoTitle means the detail page had no recognizable title, usually
// because the markup changed or the page is gone.
var ErrNoTitle = errors.New("douban: detail page has no title")

// ResolveMovie fetches a movie-category detail page and extracts the
// resolved entry fields. Pages with an episode count resolve to Series,
// everything else to Movie.
func (c *Crawler) ResolveMovie(ctx context.Context, id string) (*domain.ResolvedEntry, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/subject/%s/", c.baseURL, id))
	if err != nil {
		return nil, err
	}
	text := string(body)

	m := reviewedTitleRe.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("subject %s: %w", id, ErrNoTitle)
	}
	rawTitle := netHTML.UnescapeString(m[1])

	entry := &domain.ResolvedEntry{
		ID:         id,
		ExternalID: firstMatch(imdbRe, text),
		Year:       firstMatch(yearRe, text),
		Aliases:    splitAliases(firstMatch(aliasRe, text)),
	}

	for _, g := range genreRe.FindAllStringSubmatch(text, -1) {
		entry.Genres = append(entry.Genres, g[1])
	}

	for _, rd := range releaseDateRe.FindAllStringSubmatch(text, -1) {
		entry.ReleaseDates = append(entry.ReleaseDates, domain.ReleaseDate{Date: rd[1], Region: rd[2]})
	}
	sort.Slice(entry.ReleaseDates, func(i, j int) bool {
		return entry.ReleaseDates[i].Date < entry.ReleaseDates[j].Date
	})

	episodes := 0
	if em := episodeCountRe.FindStringSubmatch(text); em != nil {
		episodes, _ = strconv.Atoi(em[1])
	}

	if episodes > 0 {
		entry.Type = domain.MediaTypeSeries
		entry.Episodes = episodes
		if sm := seasonCountRe.FindStringSubmatch(text); sm != nil {
			entry.Seasons, _ = strconv.Atoi(sm[1])
		}
		resolveSeriesTitle(entry, rawTitle)
	} else {
		entry.Type = domain.MediaTypeMovie
		local, original := splitAtFirstSpace(rawTitle)
		setTitles(entry, local, original)
	}

	return entry, nil
}

// resolveSeriesTitle splits a combined "local original" series title. The
// local part may itself contain a season marker with spaces around it
// (e.g. "权力的游戏 第八季 Game of Thrones"), so the split point is the first
// space after the marker, not the first space overall.
func resolveSeriesTitle(entry *domain.ResolvedEntry, rawTitle string) {
	marker, season, found := titles.SeasonMarker(rawTitle)
	if !found {
		if entry.Seasons == 0 {
			entry.Seasons = 1
		}
		local, original := splitAtFirstSpace(rawTitle)
		setTitles(entry, local, original)
		return
	}

	if entry.Seasons == 0 {
		entry.Seasons = season
	}

	idx := strings.Index(rawTitle, marker+" ")
	if idx == -1 {
		setTitles(entry, strings.TrimSpace(rawTitle), "")
		return
	}
	cut := idx + len(marker)
	setTitles(entry, strings.TrimSpace(rawTitle[:cut]), strings.TrimSpace(rawTitle[cut+1:]))
}

func setTitles(entry *domain.ResolvedEntry, local, original string) {
	entry.Titles = []string{local}
	if original != "" && original != local {
		entry.Titles = append(entry.Titles, original)
		entry.OriginalTitle = original
	}
}

func splitAtFirstSpace(s string) (string, string) {
	idx := strings.Index(s, " ")
	if idx == -1 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx+1:])
}

func splitAliases(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []string
	for _, a := range strings.Split(raw, titleDelimiter) {
		if a = strings.TrimSpace(netHTML.UnescapeString(a)); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
