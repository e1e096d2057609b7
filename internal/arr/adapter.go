// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog/log"

	"github.com/listarr/listarr/internal/domain"
	"github.com/listarr/listarr/internal/httpclient"
	"github.com/listarr/listarr/pkg/stringutils"
)

// Target supplies the per-media-type pieces of a library adapter: how items
// identify themselves, how titles normalize for comparison, which lookup
// terms to try during acquisition and how to finish the add payload. The
// match/add/tag state machine itself is shared.
type Target interface {
	Kind() domain.MediaType
	APIType() string
	APIVersion() string

	// ItemExternalID extracts the item's cross-catalog id, empty when the
	// target's items carry none.
	ItemExternalID(item Item) string

	// ItemTitleKeys returns the item's titles in normalized matching form.
	ItemTitleKeys(item Item) []string

	// NormalizeTitle maps an entry title into the same matching form.
	NormalizeTitle(title string) string

	// LookupTerms returns the ordered search terms to try against the
	// target's lookup endpoint when the entry is not in the library yet.
	LookupTerms(ctx context.Context, entry *domain.ResolvedEntry) ([]string, error)

	// DecorateAddPayload applies target-specific defaults and the matched
	// genre route (may be nil) to an add payload.
	DecorateAddPayload(payload Item, entry *domain.ResolvedEntry, route *domain.GenreRoute)
}

// Outcome is the terminal state of one TryAdd invocation.
type Outcome string

const (
	// OutcomeAdded means the entry was submitted and the target created it.
	OutcomeAdded Outcome = "added"
	// OutcomeTagUpdated means the entry existed and its status tag moved.
	OutcomeTagUpdated Outcome = "tag-updated"
	// OutcomeAlreadySynced means the entry existed with the right tag.
	OutcomeAlreadySynced Outcome = "already-synced"
	// OutcomeRejected means the target refused the add with a structured
	// body, typically "already exists".
	OutcomeRejected Outcome = "rejected"
	// OutcomeNotFound means no search strategy produced a confirmed match.
	OutcomeNotFound Outcome = "not-found"
	// OutcomeFailed means a server-side or transport problem.
	OutcomeFailed Outcome = "failed"
)

type matchKeys struct {
	externalID string
	titleKeys  []string
}

// Adapter reconciles resolved entries against one library target. The item
// snapshot is fetched once at Bootstrap and treated as ground truth for the
// run; items added during the run are appended to the index so a re-dispatch
// of the same work no-ops instead of duplicating the add.
type Adapter struct {
	client *Client
	target Target
	cfg    domain.ArrConfig

	tags       []Tag
	extIndex   map[string]Item
	titleIndex map[string]Item
}

// NewAdapter wires a Target to a shared Adapter.
func NewAdapter(cfg domain.ArrConfig, target Target, hc *httpclient.Client) *Adapter {
	return &Adapter{
		client:     NewClient(cfg, target.APIVersion(), hc),
		target:     target,
		cfg:        cfg,
		extIndex:   make(map[string]Item),
		titleIndex: make(map[string]Item),
	}
}

// Kind returns the media type this adapter serves.
func (a *Adapter) Kind() domain.MediaType {
	return a.target.Kind()
}

// Bootstrap synchronizes the status-tag vocabulary and fetches the library
// snapshot. Safe to run repeatedly: existing labels are detected before a
// new tag record is synthesized.
func (a *Adapter) Bootstrap(ctx context.Context) error {
	var tags []Tag
	if err := a.client.GetJSON(ctx, "tag", nil, &tags); err != nil {
		return fmt.Errorf("fetch tag vocabulary: %w", err)
	}

	for _, label := range domain.StatusTags {
		if findTag(tags, string(label)) == nil {
			tags = append(tags, Tag{ID: len(tags) + 1, Label: string(label)})
			log.Info().Str("target", a.target.APIType()).Str("label", string(label)).Msg("status tag missing, will be created")
		}
	}
	a.tags = tags

	for _, tag := range a.tags {
		resp, err := a.client.PostJSON(ctx, "tag", tag)
		if err != nil {
			return fmt.Errorf("push tag %q: %w", tag.Label, err)
		}
		if resp.StatusCode != 201 && resp.StatusCode != 202 {
			log.Warn().Str("target", a.target.APIType()).Str("label", tag.Label).Int("status", resp.StatusCode).Msg("could not push tag")
		}
	}

	var items []Item
	if err := a.client.GetJSON(ctx, a.target.APIType(), nil, &items); err != nil {
		return fmt.Errorf("fetch %s snapshot: %w", a.target.APIType(), err)
	}
	for _, item := range items {
		a.indexItem(item)
	}

	log.Debug().Str("target", a.target.APIType()).Int("items", len(items)).Int("tags", len(a.tags)).Msg("adapter bootstrapped")

	return nil
}

// TryAdd runs the per-entry state machine: find the entry in the snapshot
// and converge its status tag, or search the lookup endpoint and add it
// exactly once. An add is never retried on ambiguous failure.
func (a *Adapter) TryAdd(ctx context.Context, entry *domain.ResolvedEntry, listType domain.ListType) (Outcome, error) {
	keys := a.buildKeys(entry)

	if item := a.findExisting(keys); item != nil {
		return a.transitionTags(ctx, item, listType)
	}

	return a.searchAndAdd(ctx, entry, keys, listType)
}

func (a *Adapter) buildKeys(entry *domain.ResolvedEntry) matchKeys {
	keys := matchKeys{externalID: stringutils.InternNormalized(entry.ExternalID)}
	seen := make(map[string]bool)
	for _, t := range entry.AllTitles() {
		k := a.target.NormalizeTitle(t)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys.titleKeys = append(keys.titleKeys, k)
	}
	return keys
}

// findExisting checks the external id first; a title match is only
// consulted when no item carries the entry's external id.
func (a *Adapter) findExisting(keys matchKeys) Item {
	if keys.externalID != "" {
		if item, ok := a.extIndex[keys.externalID]; ok {
			return item
		}
	}
	for _, k := range keys.titleKeys {
		if item, ok := a.titleIndex[k]; ok {
			return item
		}
	}
	return nil
}

// matches is the confirmation predicate applied to lookup result rows.
func (a *Adapter) matches(keys matchKeys, item Item) bool {
	if keys.externalID != "" && stringutils.InternNormalized(a.target.ItemExternalID(item)) == keys.externalID {
		return true
	}
	itemKeys := a.target.ItemTitleKeys(item)
	for _, k := range keys.titleKeys {
		for _, ik := range itemKeys {
			if k == ik {
				return true
			}
		}
	}
	return false
}

func (a *Adapter) indexItem(item Item) {
	if ext := stringutils.InternNormalized(a.target.ItemExternalID(item)); ext != "" {
		if _, taken := a.extIndex[ext]; !taken {
			a.extIndex[ext] = item
		}
	}
	for _, k := range a.target.ItemTitleKeys(item) {
		if k == "" {
			continue
		}
		if _, taken := a.titleIndex[k]; !taken {
			a.titleIndex[stringutils.Intern(k)] = item
		}
	}
}

func findTag(tags []Tag, label string) *Tag {
	for i := range tags {
		if tags[i].Label == label {
			return &tags[i]
		}
	}
	return nil
}

func (a *Adapter) tagByLabel(label domain.TagLabel) *Tag {
	return findTag(a.tags, string(label))
}

// transitionTags converges the item to the single status tag mapped from
// the list type: the other two are removed first, then the mapped tag is
// added unless already present.
func (a *Adapter) transitionTags(ctx context.Context, item Item, listType domain.ListType) (Outcome, error) {
	label := domain.TagForListType(listType)
	if label == "" {
		return OutcomeAlreadySynced, nil
	}

	tag := a.tagByLabel(label)
	if tag == nil {
		return OutcomeFailed, fmt.Errorf("status tag %q missing from %s vocabulary", label, a.target.APIType())
	}

	if item.HasTag(tag.ID) {
		return OutcomeAlreadySynced, nil
	}

	for _, other := range domain.StatusTags {
		if other == label {
			continue
		}
		otherTag := a.tagByLabel(other)
		if otherTag == nil || !item.HasTag(otherTag.ID) {
			continue
		}
		if err := a.applyTag(ctx, item, otherTag.ID, "remove"); err != nil {
			return OutcomeFailed, err
		}
		item.RemoveTagID(otherTag.ID)
	}

	if err := a.applyTag(ctx, item, tag.ID, "add"); err != nil {
		return OutcomeFailed, err
	}
	item.AddTagID(tag.ID)

	return OutcomeTagUpdated, nil
}

func (a *Adapter) applyTag(ctx context.Context, item Item, tagID int, mode string) error {
	payload := map[string]any{
		a.target.APIType() + "Ids": []int{item.ID()},
		"tags":                     []int{tagID},
		"applyTags":                mode,
	}
	resp, err := a.client.PutJSON(ctx, a.target.APIType()+"/editor", payload)
	if err != nil {
		return err
	}
	if resp.StatusCode != 202 {
		return fmt.Errorf("%s tag on %s item %d returned status %d", mode, a.target.APIType(), item.ID(), resp.StatusCode)
	}
	return nil
}

func (a *Adapter) searchAndAdd(ctx context.Context, entry *domain.ResolvedEntry, keys matchKeys, listType domain.ListType) (Outcome, error) {
	terms, err := a.target.LookupTerms(ctx, entry)
	if err != nil {
		return OutcomeNotFound, err
	}

	for _, term := range terms {
		var results []Item
		if err := a.client.GetJSON(ctx, a.target.APIType()+"/lookup", url.Values{"term": {term}}, &results); err != nil {
			log.Warn().Str("target", a.target.APIType()).Str("term", term).Err(err).Msg("lookup failed, trying next term")
			continue
		}

		for _, result := range results {
			if a.matches(keys, result) {
				log.Info().Str("target", a.target.APIType()).Str("title", entry.Title()).Str("term", term).Msg("confirmed lookup match")
				return a.add(ctx, result, entry, listType)
			}
		}

		if len(results) > 0 {
			a.logNearMiss(entry, term, results)
		}
	}

	return OutcomeNotFound, nil
}

// logNearMiss names the closest unconfirmed candidate. Unconfirmed results
// are deliberately not added: a false-positive add is worse than a miss.
func (a *Adapter) logNearMiss(entry *domain.ResolvedEntry, term string, results []Item) {
	titles := make([]string, 0, len(results))
	for _, r := range results {
		if t := r.Str("title"); t != "" {
			titles = append(titles, t)
		}
	}

	closest := ""
	if ranks := fuzzy.RankFindNormalizedFold(entry.Title(), titles); len(ranks) > 0 {
		sort.Sort(ranks)
		closest = ranks[0].Target
	} else if len(titles) > 0 {
		closest = titles[0]
	}

	log.Debug().
		Str("target", a.target.APIType()).
		Str("title", entry.Title()).
		Str("term", term).
		Int("results", len(results)).
		Str("closest", closest).
		Msg("lookup returned results but none confirmed by id or title")
}

// add submits the add request once. A structured rejection body is logged
// and not treated as fatal; it usually means the work already exists under
// a different identity.
func (a *Adapter) add(ctx context.Context, result Item, entry *domain.ResolvedEntry, listType domain.ListType) (Outcome, error) {
	payload := maps.Clone(result)

	payload["qualityProfileId"] = a.cfg.QualityProfileID
	payload["rootFolderPath"] = a.cfg.RootFolderPath
	payload["monitored"] = a.cfg.Monitored
	if a.cfg.AddOptions != nil {
		payload["addOptions"] = a.cfg.AddOptions
	} else {
		payload["addOptions"] = map[string]any{}
	}

	route := a.genreRoute(entry)
	if route != nil && route.RootFolderPath != "" {
		payload["rootFolderPath"] = route.RootFolderPath
	}

	a.target.DecorateAddPayload(payload, entry, route)

	if label := domain.TagForListType(listType); label != "" {
		if tag := a.tagByLabel(label); tag != nil {
			payload.AddTagID(tag.ID)
		}
	}

	resp, err := a.client.PostJSON(ctx, a.target.APIType(), payload)
	if err != nil {
		return OutcomeFailed, err
	}

	switch {
	case resp.StatusCode == 201:
		created := payload
		var decoded Item
		if err := resp.DecodeJSON(&decoded); err == nil && len(decoded) > 0 {
			created = decoded
		}
		a.indexItem(created)
		log.Info().Str("target", a.target.APIType()).Str("title", entry.Title()).Msg("added")
		return OutcomeAdded, nil
	case len(resp.Body) > 0:
		if hasRejectionCode(resp.Body, "EqualValidator") {
			// The series exists under another season; the work itself is
			// already tracked.
			log.Info().Str("target", a.target.APIType()).Str("title", entry.Title()).Msg("already tracked under a different season, not added")
		} else {
			log.Info().Str("target", a.target.APIType()).Str("title", entry.Title()).RawJSON("response", resp.Body).Msg("add rejected by target")
		}
		return OutcomeRejected, nil
	default:
		return OutcomeFailed, fmt.Errorf("add %s %q returned status %d", a.target.APIType(), entry.Title(), resp.StatusCode)
	}
}

type rejection struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// hasRejectionCode reports whether a non-201 add response body carries the
// validation error code. The targets answer with an array of validation
// failures; anything else is treated as an opaque rejection.
func hasRejectionCode(body []byte, code string) bool {
	var rejections []rejection
	if err := json.Unmarshal(body, &rejections); err != nil {
		return false
	}
	for _, r := range rejections {
		if r.ErrorCode == code {
			return true
		}
	}
	return false
}

// genreRoute returns the first configured route whose genre appears in the
// entry's genre set.
func (a *Adapter) genreRoute(entry *domain.ResolvedEntry) *domain.GenreRoute {
	for i := range a.cfg.GenreRoutes {
		for _, g := range entry.Genres {
			if g == a.cfg.GenreRoutes[i].Genre {
				return &a.cfg.GenreRoutes[i]
			}
		}
	}
	return nil
}
