// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package sync

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listarr/listarr/internal/arr"
	"github.com/listarr/listarr/internal/domain"
	"github.com/listarr/listarr/internal/listfile"
)

type stubSource struct {
	category domain.Category
	rows     map[string][]domain.CandidateEntry
	entries  map[string]*domain.ResolvedEntry
	fetchErr map[string]error
	primeErr error
}

func listKey(user string, lt domain.ListType) string {
	return fmt.Sprintf("%s/%s", user, lt)
}

func (s *stubSource) Category() domain.Category { return s.category }

func (s *stubSource) Prime(context.Context) error { return s.primeErr }

func (s *stubSource) FetchList(_ context.Context, user string, lt domain.ListType, _ domain.ScrapeWindow, _ int) ([]domain.CandidateEntry, error) {
	key := listKey(user, lt)
	if err := s.fetchErr[key]; err != nil {
		return nil, err
	}
	return s.rows[key], nil
}

func (s *stubSource) Resolve(_ context.Context, id string) (*domain.ResolvedEntry, error) {
	entry, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("no detail page for %s", id)
	}
	clone := *entry
	return &clone, nil
}

type dispatchRecord struct {
	id       string
	listType domain.ListType
}

type stubAdapter struct {
	kind         domain.MediaType
	outcome      arr.Outcome
	bootstrapErr error
	bootstraps   int
	calls        []dispatchRecord
}

func (a *stubAdapter) Kind() domain.MediaType { return a.kind }

func (a *stubAdapter) Bootstrap(context.Context) error {
	a.bootstraps++
	return a.bootstrapErr
}

func (a *stubAdapter) TryAdd(_ context.Context, entry *domain.ResolvedEntry, lt domain.ListType) (arr.Outcome, error) {
	a.calls = append(a.calls, dispatchRecord{id: entry.ID, listType: lt})
	if a.outcome == "" {
		return arr.OutcomeAdded, nil
	}
	return a.outcome, nil
}

func testServiceConfig(mode domain.SyncMode) *domain.Config {
	return &domain.Config{
		Douban: domain.DoubanConfig{
			UserDomains: []string{"alice"},
			Categories:  []string{"movie"},
			ListTypes:   []string{"wish", "collect"},
			StartDate:   "today",
			EndDate:     "epoch",
			Mode:        string(mode),
			SaveLists:   false,
		},
	}
}

func newTestService(t *testing.T, cfg *domain.Config, source Source, adapters map[domain.MediaType]Adapter) *Service {
	t.Helper()
	sources := map[domain.Category]Source{source.Category(): source}
	return NewService(cfg, listfile.NewStore(filepath.Join(t.TempDir(), "lists")), sources, adapters)
}

func TestRunDispatchesByMediaType(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	source := &stubSource{
		category: domain.CategoryMovie,
		rows: map[string][]domain.CandidateEntry{
			listKey("alice", domain.ListTypeWish): {
				{ID: "1", AddedDate: day},
				{ID: "2", AddedDate: day},
			},
		},
		entries: map[string]*domain.ResolvedEntry{
			"1": {ID: "1", Type: domain.MediaTypeMovie, Titles: []string{"电影"}},
			"2": {ID: "2", Type: domain.MediaTypeSeries, Titles: []string{"剧集"}},
		},
	}

	movies := &stubAdapter{kind: domain.MediaTypeMovie}
	series := &stubAdapter{kind: domain.MediaTypeSeries, outcome: arr.OutcomeTagUpdated}
	svc := newTestService(t, testServiceConfig(domain.ModeScrapeAndAdd), source, map[domain.MediaType]Adapter{
		domain.MediaTypeMovie:  movies,
		domain.MediaTypeSeries: series,
	})

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, movies.calls, 1)
	assert.Equal(t, dispatchRecord{id: "1", listType: domain.ListTypeWish}, movies.calls[0])
	require.Len(t, series.calls, 1)
	assert.Equal(t, dispatchRecord{id: "2", listType: domain.ListTypeWish}, series.calls[0])

	assert.Equal(t, 1, summary[arr.OutcomeAdded])
	assert.Equal(t, 1, summary[arr.OutcomeTagUpdated])

	// Each adapter bootstraps once, lazily.
	assert.Equal(t, 1, movies.bootstraps)
	assert.Equal(t, 1, series.bootstraps)
}

func TestRunIsolatesCombinationFailures(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	source := &stubSource{
		category: domain.CategoryMovie,
		fetchErr: map[string]error{
			listKey("alice", domain.ListTypeWish): fmt.Errorf("boom"),
		},
		rows: map[string][]domain.CandidateEntry{
			listKey("alice", domain.ListTypeCollect): {{ID: "1", AddedDate: day}},
		},
		entries: map[string]*domain.ResolvedEntry{
			"1": {ID: "1", Type: domain.MediaTypeMovie, Titles: []string{"电影"}},
		},
	}

	movies := &stubAdapter{kind: domain.MediaTypeMovie}
	svc := newTestService(t, testServiceConfig(domain.ModeScrapeAndAdd), source, map[domain.MediaType]Adapter{
		domain.MediaTypeMovie: movies,
	})

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	// The failed wish crawl must not block the collect crawl.
	require.Len(t, movies.calls, 1)
	assert.Equal(t, domain.ListTypeCollect, movies.calls[0].listType)
}

func TestRunScrapeOnlyPersistsWithoutDispatch(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	source := &stubSource{
		category: domain.CategoryMovie,
		rows: map[string][]domain.CandidateEntry{
			listKey("alice", domain.ListTypeWish): {{ID: "1", AddedDate: day}},
		},
		entries: map[string]*domain.ResolvedEntry{
			"1": {ID: "1", Type: domain.MediaTypeMovie, Titles: []string{"电影"}},
		},
	}

	cfg := testServiceConfig(domain.ModeScrapeOnly)
	cfg.Douban.SaveLists = true

	movies := &stubAdapter{kind: domain.MediaTypeMovie}
	listsDir := filepath.Join(t.TempDir(), "lists")
	svc := NewService(cfg, listfile.NewStore(listsDir), map[domain.Category]Source{domain.CategoryMovie: source}, map[domain.MediaType]Adapter{
		domain.MediaTypeMovie: movies,
	})

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, movies.calls)
	assert.Zero(t, movies.bootstraps)

	matches, err := filepath.Glob(filepath.Join(listsDir, "*_entry_details_movie.list"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRunFromFileReplaysEntries(t *testing.T) {
	t.Parallel()

	listsDir := filepath.Join(t.TempDir(), "lists")
	store := listfile.NewStore(listsDir)
	path, err := store.SaveResolved(time.Date(2024, 5, 11, 9, 30, 0, 0, time.UTC), domain.CategoryMovie, []domain.ResolvedEntry{
		{ID: "1", Type: domain.MediaTypeMovie, Titles: []string{"电影"}, ListType: domain.ListTypeCollect},
		{ID: "2", Type: domain.MediaTypeSeries, Titles: []string{"剧集"}},
	})
	require.NoError(t, err)

	cfg := testServiceConfig(domain.ModeAddFromFile)
	cfg.Douban.ListFilePath = path

	movies := &stubAdapter{kind: domain.MediaTypeMovie}
	series := &stubAdapter{kind: domain.MediaTypeSeries}
	svc := NewService(cfg, store, map[domain.Category]Source{}, map[domain.MediaType]Adapter{
		domain.MediaTypeMovie:  movies,
		domain.MediaTypeSeries: series,
	})

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, movies.calls, 1)
	require.Len(t, series.calls, 1)
	// A collect-originated entry keeps its list type on replay; entries
	// from files predating the recorded type fall back to wish.
	assert.Equal(t, domain.ListTypeCollect, movies.calls[0].listType)
	assert.Equal(t, domain.ListTypeWish, series.calls[0].listType)
	assert.Equal(t, 2, summary[arr.OutcomeAdded])
}

func TestRunFromFileResolvesCandidateLists(t *testing.T) {
	t.Parallel()

	listsDir := filepath.Join(t.TempDir(), "lists")
	store := listfile.NewStore(listsDir)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	path, err := store.SaveCandidates(time.Date(2024, 5, 11, 9, 30, 0, 0, time.UTC), domain.CategoryMovie, []domain.CandidateEntry{
		{ID: "1", ListType: domain.ListTypeDoing, AddedDate: day},
		{ID: "missing", AddedDate: day},
	})
	require.NoError(t, err)

	source := &stubSource{
		category: domain.CategoryMovie,
		entries: map[string]*domain.ResolvedEntry{
			"1": {ID: "1", Type: domain.MediaTypeMovie, Titles: []string{"电影"}},
		},
	}

	cfg := testServiceConfig(domain.ModeAddFromFile)
	cfg.Douban.ListFilePath = path

	movies := &stubAdapter{kind: domain.MediaTypeMovie}
	svc := NewService(cfg, store, map[domain.Category]Source{domain.CategoryMovie: source}, map[domain.MediaType]Adapter{
		domain.MediaTypeMovie: movies,
	})

	_, err = svc.Run(context.Background())
	require.NoError(t, err)

	// The unresolvable candidate is skipped; the rest dispatch with the
	// list type recorded in the file.
	require.Len(t, movies.calls, 1)
	assert.Equal(t, dispatchRecord{id: "1", listType: domain.ListTypeDoing}, movies.calls[0])
}

func TestRunDisablesTargetAfterBootstrapFailure(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	source := &stubSource{
		category: domain.CategoryMovie,
		rows: map[string][]domain.CandidateEntry{
			listKey("alice", domain.ListTypeWish): {
				{ID: "1", AddedDate: day},
				{ID: "2", AddedDate: day},
			},
		},
		entries: map[string]*domain.ResolvedEntry{
			"1": {ID: "1", Type: domain.MediaTypeMovie, Titles: []string{"电影一"}},
			"2": {ID: "2", Type: domain.MediaTypeMovie, Titles: []string{"电影二"}},
		},
	}

	movies := &stubAdapter{kind: domain.MediaTypeMovie, bootstrapErr: fmt.Errorf("unreachable")}
	svc := newTestService(t, testServiceConfig(domain.ModeScrapeAndAdd), source, map[domain.MediaType]Adapter{
		domain.MediaTypeMovie: movies,
	})

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	// Bootstrap is attempted once; the second entry skips the dead target.
	assert.Equal(t, 1, movies.bootstraps)
	assert.Empty(t, movies.calls)
	assert.Equal(t, 1, summary[arr.OutcomeFailed])
}
