// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package musicbrainz is a minimal MusicBrainz ws/2 client used to turn an
// album barcode or title into release-group ids that Lidarr's lookup
// endpoint understands.
package musicbrainz

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"

	"github.com/listarr/listarr/internal/httpclient"
)

const defaultBaseURL = "https://musicbrainz.org"

// Client queries the MusicBrainz web service.
type Client struct {
	client  *httpclient.Client
	baseURL string
}

// NewClient constructs a Client. An empty baseURL selects the public
// service. The HTTP client should be throttled; the MusicBrainz service
// expects at most one request per second.
func NewClient(hc *httpclient.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{client: hc, baseURL: baseURL}
}

type releaseMetadata struct {
	XMLName  xml.Name  `xml:"metadata"`
	Releases []release `xml:"release-list>release"`
}

type release struct {
	ID           string `xml:"id,attr"`
	ReleaseGroup struct {
		ID string `xml:"id,attr"`
	} `xml:"release-group"`
}

// ReleaseGroupsByBarcode returns release-group ids for releases carrying the
// barcode, in result order.
func (c *Client) ReleaseGroupsByBarcode(ctx context.Context, barcode string) ([]string, error) {
	return c.search(ctx, "barcode:"+barcode)
}

// ReleaseGroupsByTitle returns release-group ids for releases matching the
// title, in result order.
func (c *Client) ReleaseGroupsByTitle(ctx context.Context, title string) ([]string, error) {
	return c.search(ctx, "release:"+title)
}

func (c *Client) search(ctx context.Context, query string) ([]string, error) {
	resp, err := c.client.Get(ctx, c.baseURL+"/ws/2/release/", url.Values{"query": {query}}, nil)
	if err != nil {
		return nil, fmt.Errorf("musicbrainz query %q: %w", query, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("musicbrainz returned status %d for query %q", resp.StatusCode, query)
	}

	var meta releaseMetadata
	if err := xml.Unmarshal(resp.Body, &meta); err != nil {
		return nil, fmt.Errorf("decode musicbrainz response: %w", err)
	}

	var ids []string
	seen := make(map[string]bool)
	for _, rel := range meta.Releases {
		id := rel.ReleaseGroup.ID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
