// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package arr implements the library adapters that reconcile resolved
// entries against Radarr, Sonarr and Lidarr: tag bootstrap, existing-item
// matching, lookup search, add and tag-state transitions.
package arr

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/listarr/listarr/internal/domain"
	"github.com/listarr/listarr/internal/httpclient"
)

// Client is a thin REST wrapper for one *arr instance.
type Client struct {
	hc      *httpclient.Client
	baseURL string
	apiBase string
	apiKey  string
}

// NewClient constructs a client for one target. When urlBase is set it
// replaces the port in the server address, matching how the targets are
// commonly deployed behind a reverse proxy.
func NewClient(cfg domain.ArrConfig, apiVersion string, hc *httpclient.Client) *Client {
	scheme := "http"
	if cfg.HTTPS {
		scheme = "https"
	}

	var server string
	if strings.TrimSpace(cfg.URLBase) == "" {
		server = fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)
	} else {
		server = fmt.Sprintf("%s://%s%s", scheme, cfg.Host, cfg.URLBase)
	}

	return &Client{
		hc:      hc,
		baseURL: strings.TrimRight(server, "/"),
		apiBase: "/api/" + apiVersion,
		apiKey:  cfg.APIKey,
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"X-Api-Key":    c.apiKey,
		"Content-Type": "application/json",
	}
}

func (c *Client) endpoint(parts ...string) string {
	return c.baseURL + c.apiBase + "/" + strings.Join(parts, "/")
}

// GetJSON fetches an API resource into out.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out any) error {
	resp, err := c.hc.Get(ctx, c.endpoint(path), params, c.headers())
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("GET %s returned status %d", path, resp.StatusCode)
	}
	if err := resp.DecodeJSON(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// PostJSON posts a resource and returns the raw response; callers interpret
// the status code (201 means created, anything else carries a rejection
// body).
func (c *Client) PostJSON(ctx context.Context, path string, payload any) (*httpclient.Response, error) {
	return c.hc.PostJSON(ctx, c.endpoint(path), payload, c.headers())
}

// PutJSON puts a resource and returns the raw response; 202 means accepted.
func (c *Client) PutJSON(ctx context.Context, path string, payload any) (*httpclient.Response, error) {
	return c.hc.PutJSON(ctx, c.endpoint(path), payload, c.headers())
}
