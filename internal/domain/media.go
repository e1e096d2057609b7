// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import "time"

// MediaType identifies which library a resolved entry belongs to.
type MediaType string

const (
	MediaTypeMovie  MediaType = "Movie"
	MediaTypeSeries MediaType = "Series"
	MediaTypeMusic  MediaType = "Music"
)

// Category is a scrape source category on the tracking site. A category is
// not the same thing as a MediaType: the "movie" category yields both movies
// and series, depending on what the detail page reports.
type Category string

const (
	CategoryMovie Category = "movie"
	CategoryMusic Category = "music"
)

// ListType is one of the tracking site's three per-user activity lists.
type ListType string

const (
	ListTypeWish    ListType = "wish"
	ListTypeDoing   ListType = "do"
	ListTypeCollect ListType = "collect"
)

// TagLabel is a library-side status tag derived from the list an entry came
// from. A library item carries at most one of these at a time.
type TagLabel string

const (
	TagUnwatched TagLabel = "unwatched"
	TagWatching  TagLabel = "watching"
	TagWatched   TagLabel = "watched"
)

// StatusTags lists the three status labels in bootstrap order.
var StatusTags = []TagLabel{TagUnwatched, TagWatching, TagWatched}

// TagForListType maps a list type to its status tag. The mapping is total:
// unknown list types map to the empty label, meaning "no tag change".
func TagForListType(lt ListType) TagLabel {
	switch lt {
	case ListTypeWish:
		return TagUnwatched
	case ListTypeDoing:
		return TagWatching
	case ListTypeCollect:
		return TagWatched
	}
	return ""
}

// CandidateEntry is a single unresolved item scraped from a user's list page.
// ListType records which of the user's lists the row came from, so replays of
// persisted files keep the watch status it implies.
type CandidateEntry struct {
	ID        string    `json:"id"`
	Titles    []string  `json:"titles"`
	URL       string    `json:"url"`
	ListType  ListType  `json:"list_type"`
	AddedDate time.Time `json:"added_date"`
}

// ReleaseDate is one regional release date from a detail page.
type ReleaseDate struct {
	Date   string `json:"date"`
	Region string `json:"region"`
}

// ResolvedEntry is a CandidateEntry enriched with catalog metadata from the
// item's detail page. ExternalID is an IMDB id for movies/series and a
// barcode for music; empty means the detail page did not carry one.
type ResolvedEntry struct {
	ID            string        `json:"id"`
	Type          MediaType     `json:"type"`
	Titles        []string      `json:"titles"`
	OriginalTitle string        `json:"original_title"`
	Aliases       []string      `json:"aliases"`
	Year          string        `json:"year"`
	Genres        []string      `json:"genres"`
	ExternalID    string        `json:"external_id"`
	ReleaseDates  []ReleaseDate `json:"release_dates,omitempty"`
	Seasons       int           `json:"seasons,omitempty"`
	Episodes      int           `json:"episodes,omitempty"`
	ListType      ListType      `json:"list_type"`
	AddedDate     time.Time     `json:"added_date"`
}

// Title returns the primary (local-language) title.
func (e *ResolvedEntry) Title() string {
	if len(e.Titles) > 0 {
		return e.Titles[0]
	}
	return ""
}

// AllTitles returns the primary title, the original title when distinct, and
// every alias, in that order. This is the search-term order used by the
// library adapters.
func (e *ResolvedEntry) AllTitles() []string {
	out := make([]string, 0, len(e.Titles)+len(e.Aliases)+1)
	out = append(out, e.Titles...)

	add := func(title string) {
		if title == "" {
			return
		}
		for _, t := range out {
			if t == title {
				return
			}
		}
		out = append(out, title)
	}

	add(e.OriginalTitle)
	for _, alias := range e.Aliases {
		add(alias)
	}
	return out
}

// ScrapeWindow bounds a list crawl by added date. Start is the newest date
// accepted, End the oldest. Lists are newest-first, so rows newer than Start
// are skipped and the first row older than End terminates the crawl.
type ScrapeWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the window.
func (w ScrapeWindow) Contains(d time.Time) bool {
	return !d.After(w.Start) && !d.Before(w.End)
}

// Exceeded reports whether d is older than the window, i.e. pagination can stop.
func (w ScrapeWindow) Exceeded(d time.Time) bool {
	return d.Before(w.End)
}
