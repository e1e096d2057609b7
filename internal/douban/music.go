// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package douban

import (
	"context"
	"fmt"
	netHTML "html"
	"regexp"

	"github.com/listarr/listarr/internal/domain"
)

var (
	barcodeRe     = regexp.MustCompile(`<span class="pl">条形码:</span>\s*([0-9]+)`)
	musicAliasRe  = regexp.MustCompile(`<span class="pl">又名:</span>([^<]+)<br\s*/?>`)
	releaseYearRe = regexp.MustCompile(`<span class="pl">发行时间:</span>\s*(\d{4})`)
	musicGenreRe  = regexp.MustCompile(`<span class="pl">流派:</span>\s*([^<]+)<br\s*/?>`)
)

// ResolveMusic fetches a music-category detail page. The external id is the
// album barcode when the page carries one.
func (c *Crawler) ResolveMusic(ctx context.Context, id string) (*domain.ResolvedEntry, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/subject/%s/", c.baseURL, id))
	if err != nil {
		return nil, err
	}
	text := string(body)

	m := reviewedTitleRe.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("subject %s: %w", id, ErrNoTitle)
	}

	entry := &domain.ResolvedEntry{
		ID:         id,
		Type:       domain.MediaTypeMusic,
		Titles:     []string{netHTML.UnescapeString(m[1])},
		ExternalID: firstMatch(barcodeRe, text),
		Year:       firstMatch(releaseYearRe, text),
		Aliases:    splitAliases(firstMatch(musicAliasRe, text)),
	}

	if genre := firstMatch(musicGenreRe, text); genre != "" {
		entry.Genres = append(entry.Genres, genre)
	}

	return entry, nil
}
