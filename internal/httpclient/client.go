// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package httpclient provides the throttled, retrying HTTP client shared by
// the crawler and the library adapters. Each Client owns its own
// last-request timestamp, so throttling is per instance rather than global.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/avast/retry-go"

	"github.com/listarr/listarr/internal/buildinfo"
)

// Options configures a Client.
type Options struct {
	Timeout     time.Duration
	MaxAttempts uint

	// MinInterval/MaxInterval bound the jittered delay enforced between
	// consecutive requests from this client. Zero disables throttling.
	MinInterval time.Duration
	MaxInterval time.Duration

	UserAgent string

	// DefaultHeaders are attached to every request (cookies, referer,
	// API keys).
	DefaultHeaders map[string]string
}

// Response is a fully-read HTTP response. Non-2xx statuses are returned
// here rather than as errors; only transport failures error out.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Client is a throttled retrying HTTP client.
type Client struct {
	hc   *http.Client
	opts Options

	mu          sync.Mutex
	lastRequest time.Time
}

// New constructs a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 6
	}
	if opts.UserAgent == "" {
		opts.UserAgent = buildinfo.UserAgent
	}
	if opts.MaxInterval < opts.MinInterval {
		opts.MaxInterval = opts.MinInterval
	}
	return &Client{
		hc:   &http.Client{Timeout: opts.Timeout},
		opts: opts,
	}
}

// Get performs a throttled GET.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, headers map[string]string) (*Response, error) {
	if len(params) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
		}
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		rawURL = u.String()
	}
	return c.do(ctx, http.MethodGet, rawURL, nil, headers)
}

// PostJSON performs a throttled POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload any, headers map[string]string) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, rawURL, body, headers)
}

// PutJSON performs a throttled PUT with a JSON body.
func (c *Client) PutJSON(ctx context.Context, rawURL string, payload any, headers map[string]string) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPut, rawURL, body, headers)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) (*Response, error) {
	var resp *Response

	err := retry.Do(
		func() error {
			if err := c.throttle(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			var reader io.Reader
			if body != nil {
				reader = bytes.NewReader(body)
			}
			req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			req.Header.Set("User-Agent", c.opts.UserAgent)
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			for k, v := range c.opts.DefaultHeaders {
				req.Header.Set(k, v)
			}
			for k, v := range headers {
				req.Header.Set(k, v)
			}

			res, err := c.hc.Do(req)
			if err != nil {
				return err
			}
			defer res.Body.Close()

			data, err := io.ReadAll(res.Body)
			if err != nil {
				return err
			}

			resp = &Response{StatusCode: res.StatusCode, Body: data}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.opts.MaxAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}

	return resp, nil
}

// throttle sleeps until the jittered inter-request interval has elapsed
// since the last request from this client.
func (c *Client) throttle(ctx context.Context) error {
	if c.opts.MaxInterval <= 0 {
		return nil
	}

	c.mu.Lock()
	interval := c.opts.MinInterval
	if jitter := c.opts.MaxInterval - c.opts.MinInterval; jitter > 0 {
		interval += rand.N(jitter)
	}
	wait := time.Until(c.lastRequest.Add(interval))
	c.lastRequest = time.Now()
	if wait > 0 {
		c.lastRequest = c.lastRequest.Add(wait)
	}
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
