// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package sync orchestrates one synchronization pass: crawl the configured
// lists, resolve entries against their detail pages, persist list files and
// dispatch resolved entries to the library adapters. Failures are isolated
// per (user, category, list type) combination; one bad list never aborts
// the run.
package sync

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/listarr/listarr/internal/arr"
	"github.com/listarr/listarr/internal/domain"
	"github.com/listarr/listarr/internal/douban"
	"github.com/listarr/listarr/internal/httpclient"
	"github.com/listarr/listarr/internal/listfile"
	"github.com/listarr/listarr/internal/musicbrainz"
)

// Source is one crawlable category of the tracking site.
type Source interface {
	Category() domain.Category
	Prime(ctx context.Context) error
	FetchList(ctx context.Context, user string, listType domain.ListType, window domain.ScrapeWindow, startPage int) ([]domain.CandidateEntry, error)
	Resolve(ctx context.Context, id string) (*domain.ResolvedEntry, error)
}

// Adapter is one library target.
type Adapter interface {
	Kind() domain.MediaType
	Bootstrap(ctx context.Context) error
	TryAdd(ctx context.Context, entry *domain.ResolvedEntry, listType domain.ListType) (arr.Outcome, error)
}

// Summary counts dispatch outcomes across a run.
type Summary map[arr.Outcome]int

// Service runs synchronization passes.
type Service struct {
	cfg      *domain.Config
	store    *listfile.Store
	sources  map[domain.Category]Source
	adapters map[domain.MediaType]Adapter
	now      func() time.Time

	ready map[domain.MediaType]bool
}

// NewService constructs a Service from pre-built sources and adapters.
func NewService(cfg *domain.Config, store *listfile.Store, sources map[domain.Category]Source, adapters map[domain.MediaType]Adapter) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		sources:  sources,
		adapters: adapters,
		now:      time.Now,
		ready:    make(map[domain.MediaType]bool),
	}
}

// NewFromConfig wires the real crawlers and library adapters. The crawl
// client carries the user's cookies and a jittered inter-request delay; the
// MusicBrainz client is held to the service's one-request-per-second rule;
// the library targets are local and run unthrottled.
func NewFromConfig(cfg *domain.Config, listsDir string) *Service {
	crawlClient := httpclient.New(httpclient.Options{
		MinInterval: 2 * time.Second,
		MaxInterval: 6 * time.Second,
		DefaultHeaders: map[string]string{
			"Cookie": cfg.Douban.Cookies,
		},
	})

	sources := make(map[domain.Category]Source)
	for _, category := range cfg.Douban.CategoryList() {
		sources[category] = douban.NewCrawler(category, crawlClient)
	}

	arrClient := httpclient.New(httpclient.Options{})
	adapters := make(map[domain.MediaType]Adapter)
	if cfg.Radarr.Enabled() {
		adapters[domain.MediaTypeMovie] = arr.NewRadarr(cfg.Radarr, arrClient)
	}
	if cfg.Sonarr.Enabled() {
		adapters[domain.MediaTypeSeries] = arr.NewSonarr(cfg.Sonarr, arrClient)
	}
	if cfg.Lidarr.Enabled() {
		mbClient := httpclient.New(httpclient.Options{
			MinInterval: time.Second,
			MaxInterval: time.Second,
		})
		adapters[domain.MediaTypeMusic] = arr.NewLidarr(cfg.Lidarr, musicbrainz.NewClient(mbClient, ""), arrClient)
	}

	return NewService(cfg, listfile.NewStore(listsDir), sources, adapters)
}

// Run executes one pass in the configured mode.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	summary := Summary{}
	mode := domain.SyncMode(s.cfg.Douban.Mode)

	if mode == domain.ModeAddFromFile {
		return summary, s.runFromFile(ctx, summary)
	}

	window, err := s.cfg.Douban.Window(s.now())
	if err != nil {
		return summary, err
	}

	log.Info().
		Str("mode", string(mode)).
		Str("windowStart", window.Start.Format("2006-01-02")).
		Str("windowEnd", window.End.Format("2006-01-02")).
		Msg("starting synchronization run")

	for _, category := range s.cfg.Douban.CategoryList() {
		source := s.sources[category]
		if source == nil {
			log.Warn().Str("category", string(category)).Msg("no source for category, skipping")
			continue
		}
		s.runCategory(ctx, source, window, mode, summary)
	}

	s.logSummary(summary)
	return summary, nil
}

type dispatchItem struct {
	entry    *domain.ResolvedEntry
	listType domain.ListType
}

func (s *Service) runCategory(ctx context.Context, source Source, window domain.ScrapeWindow, mode domain.SyncMode, summary Summary) {
	category := source.Category()
	runTime := s.now()

	if err := source.Prime(ctx); err != nil {
		log.Error().Str("category", string(category)).Err(err).Msg("could not prime session, skipping category")
		return
	}

	var candidates []domain.CandidateEntry
	var resolved []domain.ResolvedEntry
	var pending []dispatchItem

	for _, user := range s.cfg.Douban.Users() {
		for _, listType := range s.cfg.Douban.ListTypeList() {
			rows, err := source.FetchList(ctx, user, listType, window, s.cfg.Douban.StartPage)
			if err != nil {
				log.Error().
					Str("user", user).
					Str("category", string(category)).
					Str("listType", string(listType)).
					Err(err).
					Msg("list crawl failed, continuing with next combination")
				continue
			}
			candidates = append(candidates, rows...)

			for _, row := range rows {
				entry, err := source.Resolve(ctx, row.ID)
				if err != nil {
					log.Warn().Str("id", row.ID).Str("category", string(category)).Err(err).Msg("detail resolution failed, skipping entry")
					continue
				}
				entry.ListType = listType
				entry.AddedDate = row.AddedDate
				resolved = append(resolved, *entry)

				if mode != domain.ModeScrapeAndAdd {
					continue
				}
				if s.cfg.Douban.InstantAdd {
					s.dispatch(ctx, entry, listType, summary)
				} else {
					pending = append(pending, dispatchItem{entry: entry, listType: listType})
				}
			}
		}
	}

	if s.cfg.Douban.SaveLists {
		if path, err := s.store.SaveCandidates(runTime, category, candidates); err != nil {
			log.Error().Err(err).Msg("could not persist scraped list")
		} else {
			log.Info().Str("path", path).Int("entries", len(candidates)).Msg("scraped list persisted")
		}
		if path, err := s.store.SaveResolved(runTime, category, resolved); err != nil {
			log.Error().Err(err).Msg("could not persist resolved list")
		} else {
			log.Info().Str("path", path).Int("entries", len(resolved)).Msg("resolved list persisted")
		}
	}

	for _, item := range pending {
		s.dispatch(ctx, item.entry, item.listType, summary)
	}
}

// runFromFile replays a persisted list file. An entry_details file is
// dispatched directly; a user_entries file is resolved against the detail
// pages first. Each entry dispatches with the list type it was scraped
// from, so a replayed collect entry stays watched; files from before the
// list type was recorded fall back to wish.
func (s *Service) runFromFile(ctx context.Context, summary Summary) error {
	path := s.cfg.Douban.ListFilePath
	_, kind, _, err := listfile.ParseName(path)
	if err != nil {
		return errors.Wrap(err, "load list file")
	}

	var entries []domain.ResolvedEntry
	var category domain.Category

	switch kind {
	case listfile.KindEntryDetails:
		entries, category, err = listfile.LoadResolved(path)
		if err != nil {
			return errors.Wrap(err, "load list file")
		}
	case listfile.KindUserEntries:
		var candidates []domain.CandidateEntry
		candidates, category, err = listfile.LoadCandidates(path)
		if err != nil {
			return errors.Wrap(err, "load list file")
		}
		source := s.sources[category]
		if source == nil {
			return errors.Errorf("no source configured for category %q", category)
		}
		for _, row := range candidates {
			entry, err := source.Resolve(ctx, row.ID)
			if err != nil {
				log.Warn().Str("id", row.ID).Err(err).Msg("detail resolution failed, skipping entry")
				continue
			}
			entry.ListType = row.ListType
			entry.AddedDate = row.AddedDate
			entries = append(entries, *entry)
		}
	}

	log.Info().
		Str("path", path).
		Str("category", string(category)).
		Int("entries", len(entries)).
		Msg("replaying persisted list")

	for i := range entries {
		listType := entries[i].ListType
		if listType == "" {
			listType = domain.ListTypeWish
		}
		s.dispatch(ctx, &entries[i], listType, summary)
	}

	s.logSummary(summary)
	return nil
}

// dispatch routes one resolved entry to the adapter for its media type,
// bootstrapping the adapter on first use. Adapter errors count as failures
// but never abort the run.
func (s *Service) dispatch(ctx context.Context, entry *domain.ResolvedEntry, listType domain.ListType, summary Summary) {
	adapter := s.adapters[entry.Type]
	if adapter == nil {
		log.Debug().Str("type", string(entry.Type)).Str("title", entry.Title()).Msg("no target configured for media type")
		return
	}

	if !s.ready[entry.Type] {
		if err := adapter.Bootstrap(ctx); err != nil {
			log.Error().Str("type", string(entry.Type)).Err(err).Msg("adapter bootstrap failed, disabling target for this run")
			delete(s.adapters, entry.Type)
			summary[arr.OutcomeFailed]++
			return
		}
		s.ready[entry.Type] = true
	}

	outcome, err := adapter.TryAdd(ctx, entry, listType)
	summary[outcome]++
	if err != nil {
		log.Error().Str("type", string(entry.Type)).Str("title", entry.Title()).Str("outcome", string(outcome)).Err(err).Msg("dispatch failed")
		return
	}
	log.Debug().Str("type", string(entry.Type)).Str("title", entry.Title()).Str("outcome", string(outcome)).Msg("entry dispatched")
}

func (s *Service) logSummary(summary Summary) {
	log.Info().
		Int("added", summary[arr.OutcomeAdded]).
		Int("tagUpdated", summary[arr.OutcomeTagUpdated]).
		Int("alreadySynced", summary[arr.OutcomeAlreadySynced]).
		Int("rejected", summary[arr.OutcomeRejected]).
		Int("notFound", summary[arr.OutcomeNotFound]).
		Int("failed", summary[arr.OutcomeFailed]).
		Msg("synchronization run finished")
}
