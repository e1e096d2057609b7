// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package douban crawls a user's public activity lists on the tracking site
// and resolves scraped entries against their detail pages.
package douban

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/listarr/listarr/internal/domain"
	"github.com/listarr/listarr/internal/httpclient"
)

// pageSize is the site's fixed listing page size.
const pageSize = 15

const titleDelimiter = " / "

// blockedMarker appears in responses once the site's anti-bot defenses have
// flagged the client IP.
const blockedMarker = "有异常请求从你的 IP 发出"

// ErrBlocked means the site served its anti-bot interstitial instead of the
// requested page.
var ErrBlocked = errors.New("douban: request flagged by anti-bot defenses")

var subjectIDRe = regexp.MustCompile(`/subject/(\d+)`)

// Crawler scrapes one category (movie or music) of the tracking site.
type Crawler struct {
	client   *httpclient.Client
	category domain.Category
	baseURL  string
}

// NewCrawler constructs a crawler for the given category. The client should
// carry the user's cookies and a crawl-friendly jittered request interval.
func NewCrawler(category domain.Category, client *httpclient.Client) *Crawler {
	return &Crawler{
		client:   client,
		category: category,
		baseURL:  fmt.Sprintf("https://%s.douban.com", category),
	}
}

// Category returns the crawler's source category.
func (c *Crawler) Category() domain.Category {
	return c.category
}

// Resolve fetches a candidate's detail page using the resolver for the
// crawler's category.
func (c *Crawler) Resolve(ctx context.Context, id string) (*domain.ResolvedEntry, error) {
	if c.category == domain.CategoryMusic {
		return c.ResolveMusic(ctx, id)
	}
	return c.ResolveMovie(ctx, id)
}

// Prime fetches the site home page once so the session looks like a normal
// browser visit before list crawling starts.
func (c *Crawler) Prime(ctx context.Context) error {
	_, err := c.get(ctx, c.baseURL+"/")
	return err
}

// FetchList crawls one (user, list type) listing. Pagination follows the
// page's "next" link and stops when the link is absent or the date window is
// exceeded. Rows newer than the window start are skipped without stopping;
// the first row older than the window end terminates the crawl since the
// list is newest-first.
func (c *Crawler) FetchList(ctx context.Context, user string, listType domain.ListType, window domain.ScrapeWindow, startPage int) ([]domain.CandidateEntry, error) {
	if startPage < 1 {
		startPage = 1
	}
	offset := (startPage - 1) * pageSize

	pageURL := fmt.Sprintf("%s/people/%s/%s?start=%d&sort=time&rating=all&filter=all&mode=grid",
		c.baseURL, url.PathEscape(user), listType, offset)

	var entries []domain.CandidateEntry
	pageCount := 0

	for pageURL != "" {
		body, err := c.get(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("list page %d for %s/%s: %w", pageCount+1, user, listType, err)
		}

		doc, err := html.Parse(strings.NewReader(string(body)))
		if err != nil {
			return nil, fmt.Errorf("parse list page for %s/%s: %w", user, listType, err)
		}

		rows, next := parseListPage(doc)
		pageCount++

		stop := false
		for _, row := range rows {
			added, err := time.Parse("2006-01-02", row.date)
			if err != nil {
				log.Warn().Str("user", user).Str("date", row.date).Msg("skipping row with unparseable added date")
				continue
			}
			if added.After(window.Start) {
				// Newer than the configured window; the list may still
				// contain in-window rows further down.
				continue
			}
			if window.Exceeded(added) {
				stop = true
				break
			}

			id := subjectID(row.url)
			if id == "" {
				log.Warn().Str("user", user).Str("url", row.url).Msg("skipping row without a subject id")
				continue
			}

			entries = append(entries, domain.CandidateEntry{
				ID:        id,
				Titles:    row.titles,
				URL:       row.url,
				ListType:  listType,
				AddedDate: added,
			})
		}

		if stop || next == "" {
			break
		}

		resolved, err := resolveNext(pageURL, next)
		if err != nil {
			log.Warn().Str("next", next).Err(err).Msg("ignoring malformed next-page link")
			break
		}
		pageURL = resolved

		log.Debug().Int("page", pageCount).Str("user", user).Str("listType", string(listType)).Msg("list page done, fetching next")
	}

	log.Info().Str("user", user).Str("listType", string(listType)).Int("entries", len(entries)).Int("pages", pageCount).Msg("list crawl finished")

	return entries, nil
}

type listRow struct {
	url    string
	titles []string
	date   string
}

// parseListPage extracts the listing rows and the optional next-page link.
func parseListPage(doc *html.Node) ([]listRow, string) {
	var rows []listRow

	items := findAll(doc, elemWithClass("div", "item"))
	for _, item := range items {
		titleLi := findFirst(item, elemWithClass("li", "title"))
		if titleLi == nil {
			continue
		}
		link := findFirst(titleLi, func(n *html.Node) bool { return n.Data == "a" })
		if link == nil {
			continue
		}
		dateSpan := findFirst(item, elemWithClass("span", "date"))
		if dateSpan == nil {
			continue
		}

		rows = append(rows, listRow{
			url:    attr(link, "href"),
			titles: splitRowTitles(link),
			date:   strings.TrimSpace(nodeText(dateSpan)),
		})
	}

	next := ""
	if paginator := findFirst(doc, elemWithClass("div", "paginator")); paginator != nil {
		if span := findFirst(paginator, elemWithClass("span", "next")); span != nil {
			if a := findFirst(span, func(n *html.Node) bool { return n.Data == "a" }); a != nil {
				next = attr(a, "href")
			}
		}
	}

	return rows, next
}

// splitRowTitles splits a row's title text into the primary title plus
// alternates. The emphasized fragment holds "primary / alternate"; any
// trailing text after it is a further alternate cluster prefixed by a
// separator fragment whose leading character must be trimmed.
func splitRowTitles(link *html.Node) []string {
	var titles []string

	em := findFirst(link, func(n *html.Node) bool { return n.Data == "em" })
	if em != nil {
		for _, t := range strings.Split(nodeText(em), titleDelimiter) {
			if t = strings.TrimSpace(t); t != "" {
				titles = append(titles, t)
			}
		}
	}

	var trailing strings.Builder
	start := link.FirstChild
	if em != nil {
		start = em.NextSibling
	}
	for c := start; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			trailing.WriteString(c.Data)
		}
	}
	cluster := strings.TrimSpace(trailing.String())
	if cluster != "" {
		// Drop the leading separator fragment ("/ ...").
		cluster = strings.TrimSpace(strings.TrimPrefix(cluster, "/"))
		for _, t := range strings.Split(cluster, titleDelimiter) {
			if t = strings.TrimSpace(t); t != "" {
				titles = append(titles, t)
			}
		}
	}

	return titles
}

func subjectID(rawURL string) string {
	m := subjectIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

func resolveNext(current, next string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// get fetches a page and screens it for the anti-bot interstitial.
func (c *Crawler) get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.client.Get(ctx, rawURL, nil, map[string]string{
		"Referer": c.baseURL + "/",
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("douban returned status %d for %s", resp.StatusCode, rawURL)
	}
	if strings.Contains(string(resp.Body), blockedMarker) {
		return nil, ErrBlocked
	}
	return resp.Body, nil
}
