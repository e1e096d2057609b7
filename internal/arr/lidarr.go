// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/listarr/listarr/internal/domain"
	"github.com/listarr/listarr/internal/httpclient"
	"github.com/listarr/listarr/internal/musicbrainz"
	"github.com/listarr/listarr/pkg/titles"
)

// NewLidarr builds the album adapter. Album identity goes through
// MusicBrainz: barcodes and titles are resolved to release-group ids, and
// the lookup endpoint is queried with "lidarr:<id>" terms.
func NewLidarr(cfg domain.LidarrConfig, mb *musicbrainz.Client, hc *httpclient.Client) *Adapter {
	return NewAdapter(cfg.ArrConfig, &lidarrTarget{cfg: cfg, mb: mb}, hc)
}

type lidarrTarget struct {
	cfg domain.LidarrConfig
	mb  *musicbrainz.Client
}

func (t *lidarrTarget) Kind() domain.MediaType { return domain.MediaTypeMusic }
func (t *lidarrTarget) APIType() string        { return "album" }
func (t *lidarrTarget) APIVersion() string     { return "v1" }

// ItemExternalID returns empty: albums carry a barcode on the scrape side
// but the library reports MusicBrainz ids, so matching is title-only.
func (t *lidarrTarget) ItemExternalID(Item) string {
	return ""
}

func (t *lidarrTarget) ItemTitleKeys(item Item) []string {
	if k := titles.Normalize(item.Str("title")); k != "" {
		return []string{k}
	}
	return nil
}

func (t *lidarrTarget) NormalizeTitle(title string) string {
	return titles.Normalize(title)
}

// LookupTerms resolves the album to a release group, by barcode when the
// detail page had one, otherwise by title search. The first release group
// found wins; an unresolvable album yields no terms and stays unadded.
func (t *lidarrTarget) LookupTerms(ctx context.Context, entry *domain.ResolvedEntry) ([]string, error) {
	if entry.ExternalID != "" {
		ids, err := t.mb.ReleaseGroupsByBarcode(ctx, entry.ExternalID)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			return []string{"lidarr:" + ids[0]}, nil
		}
		log.Debug().Str("barcode", entry.ExternalID).Str("title", entry.Title()).Msg("no release group for barcode, falling back to title search")
	}

	for _, title := range entry.AllTitles() {
		ids, err := t.mb.ReleaseGroupsByTitle(ctx, title)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			return []string{"lidarr:" + ids[0]}, nil
		}
	}
	return nil, nil
}

// DecorateAddPayload mirrors the add defaults onto the nested artist
// resource; a new album add creates the artist too, and the artist record
// carries its own profile and path fields.
func (t *lidarrTarget) DecorateAddPayload(payload Item, _ *domain.ResolvedEntry, route *domain.GenreRoute) {
	rootFolder := t.cfg.RootFolderPath
	if route != nil && route.RootFolderPath != "" {
		rootFolder = route.RootFolderPath
	}

	artist, ok := payload["artist"].(map[string]any)
	if !ok {
		artist = map[string]any{}
		payload["artist"] = artist
	}
	artist["qualityProfileId"] = t.cfg.QualityProfileID
	artist["metadataProfileId"] = t.cfg.MetadataProfileID
	artist["rootFolderPath"] = rootFolder
	artist["monitored"] = t.cfg.Monitored
}
