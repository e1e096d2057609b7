// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsNonOKStatusWithoutError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}))
	defer srv.Close()

	c := New(Options{MaxAttempts: 1})
	resp, err := c.Get(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "not found")
}

func TestGetAppliesParamsAndHeaders(t *testing.T) {
	t.Parallel()

	var gotTerm, gotKey, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTerm = r.URL.Query().Get("term")
		gotKey = r.Header.Get("X-Api-Key")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(Options{
		MaxAttempts:    1,
		DefaultHeaders: map[string]string{"X-Api-Key": "secret"},
	})
	resp, err := c.Get(context.Background(), srv.URL, url.Values{"term": {"imdb:tt123"}}, nil)
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "imdb:tt123", gotTerm)
	assert.Equal(t, "secret", gotKey)
	assert.Contains(t, gotUA, "listarr/")
}

func TestRetriesExhaustTransportFailures(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		_ = conn.Close()
	}))
	defer srv.Close()

	c := New(Options{MaxAttempts: 3})
	_, err := c.Get(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestContextCancelStopsRetries(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(Options{MaxAttempts: 5})
	_, err := c.Get(ctx, "http://127.0.0.1:1", nil, nil)
	require.Error(t, err)
}

func TestPostJSONSetsContentType(t *testing.T) {
	t.Parallel()

	var gotCT string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = buf
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(Options{MaxAttempts: 1})
	resp, err := c.PostJSON(context.Background(), srv.URL, map[string]string{"title": "Dune"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", gotCT)
	assert.JSONEq(t, `{"title":"Dune"}`, string(gotBody))
}
