// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SyncMode selects what a run does with the scraped lists.
type SyncMode string

const (
	// ModeScrapeAndAdd crawls live and dispatches resolved entries.
	ModeScrapeAndAdd SyncMode = "scrape_and_add"
	// ModeScrapeOnly crawls, resolves and persists, never dispatches.
	ModeScrapeOnly SyncMode = "scrape_only"
	// ModeAddFromFile replays a previously persisted list file.
	ModeAddFromFile SyncMode = "add_from_file"
)

// Config represents the application configuration
type Config struct {
	Version string

	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`

	// DataDir is where list files are persisted, under a lists/ subdirectory.
	DataDir string `toml:"dataDir" mapstructure:"dataDir"`

	Douban DoubanConfig `toml:"douban" mapstructure:"douban"`
	Radarr RadarrConfig `toml:"radarr" mapstructure:"radarr"`
	Sonarr SonarrConfig `toml:"sonarr" mapstructure:"sonarr"`
	Lidarr LidarrConfig `toml:"lidarr" mapstructure:"lidarr"`
}

// DoubanConfig controls the crawl side: which users and lists to scrape,
// the date window, and the run mode.
type DoubanConfig struct {
	Cookies     string   `toml:"cookies" mapstructure:"cookies"`
	UserDomains []string `toml:"userDomains" mapstructure:"userDomains"`
	Categories  []string `toml:"categories" mapstructure:"categories"`
	ListTypes   []string `toml:"listTypes" mapstructure:"listTypes"`

	// StartDate accepts "today" or a yyyy-MM-dd date. EndDate accepts
	// "epoch" or a yyyy-MM-dd date; a non-zero MaxScrapingDays takes
	// precedence over EndDate.
	StartDate       string `toml:"startDate" mapstructure:"startDate"`
	EndDate         string `toml:"endDate" mapstructure:"endDate"`
	MaxScrapingDays int    `toml:"maxScrapingDays" mapstructure:"maxScrapingDays"`
	StartPage       int    `toml:"startPage" mapstructure:"startPage"`

	Mode         string `toml:"mode" mapstructure:"mode"`
	InstantAdd   bool   `toml:"instantAdd" mapstructure:"instantAdd"`
	SaveLists    bool   `toml:"saveLists" mapstructure:"saveLists"`
	ListFilePath string `toml:"listFilePath" mapstructure:"listFilePath"`
}

// GenreRoute overrides add-payload defaults when an entry's genre set
// contains Genre. Routes are evaluated in configured order; the first match
// wins.
type GenreRoute struct {
	Genre          string `toml:"genre" mapstructure:"genre"`
	RootFolderPath string `toml:"rootFolderPath" mapstructure:"rootFolderPath"`
	SeriesType     string `toml:"seriesType" mapstructure:"seriesType"`
}

// ArrConfig is the connection and add-defaults surface shared by all three
// library targets.
type ArrConfig struct {
	Host             string         `toml:"host" mapstructure:"host"`
	Port             int            `toml:"port" mapstructure:"port"`
	URLBase          string         `toml:"urlBase" mapstructure:"urlBase"`
	APIKey           string         `toml:"apiKey" mapstructure:"apiKey"`
	HTTPS            bool           `toml:"https" mapstructure:"https"`
	RootFolderPath   string         `toml:"rootFolderPath" mapstructure:"rootFolderPath"`
	QualityProfileID int            `toml:"qualityProfileId" mapstructure:"qualityProfileId"`
	Monitored        bool           `toml:"monitored" mapstructure:"monitored"`
	AddOptions       map[string]any `toml:"addOptions" mapstructure:"addOptions"`
	GenreRoutes      []GenreRoute   `toml:"genreRoutes" mapstructure:"genreRoutes"`
}

// Enabled reports whether the target is configured at all.
func (c ArrConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

// RadarrConfig configures the movie target.
type RadarrConfig struct {
	ArrConfig           `mapstructure:",squash"`
	MinimumAvailability string `toml:"minimumAvailability" mapstructure:"minimumAvailability"`
}

// SonarrConfig configures the series target.
type SonarrConfig struct {
	ArrConfig         `mapstructure:",squash"`
	LanguageProfileID int    `toml:"languageProfileId" mapstructure:"languageProfileId"`
	SeriesType        string `toml:"seriesType" mapstructure:"seriesType"`
	SeasonFolder      bool   `toml:"seasonFolder" mapstructure:"seasonFolder"`
}

// LidarrConfig configures the music target.
type LidarrConfig struct {
	ArrConfig         `mapstructure:",squash"`
	MetadataProfileID int `toml:"metadataProfileId" mapstructure:"metadataProfileId"`
}

// Users returns the configured user domains with blanks dropped.
func (c DoubanConfig) Users() []string {
	return trimNonEmpty(c.UserDomains)
}

// CategoryList returns the configured categories with blanks dropped.
func (c DoubanConfig) CategoryList() []Category {
	var out []Category
	for _, s := range trimNonEmpty(c.Categories) {
		out = append(out, Category(s))
	}
	return out
}

// ListTypeList returns the configured list types with blanks dropped.
func (c DoubanConfig) ListTypeList() []ListType {
	var out []ListType
	for _, s := range trimNonEmpty(c.ListTypes) {
		out = append(out, ListType(s))
	}
	return out
}

func trimNonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Window resolves the configured scrape window against now. StartDate
// "today" means now; EndDate "epoch" means the Unix epoch. A non-zero
// MaxScrapingDays derives the end from the start instead.
func (c DoubanConfig) Window(now time.Time) (ScrapeWindow, error) {
	start := now
	if s := strings.TrimSpace(c.StartDate); s != "" && s != "today" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return ScrapeWindow{}, fmt.Errorf("invalid startDate %q: %w", s, err)
		}
		start = parsed
	}

	var end time.Time
	switch {
	case c.MaxScrapingDays > 0:
		end = start.AddDate(0, 0, -c.MaxScrapingDays)
	case strings.TrimSpace(c.EndDate) == "" || strings.TrimSpace(c.EndDate) == "epoch":
		end = time.Unix(0, 0).UTC()
	default:
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(c.EndDate))
		if err != nil {
			return ScrapeWindow{}, fmt.Errorf("invalid endDate %q: %w", c.EndDate, err)
		}
		end = parsed
	}

	if end.After(start) {
		return ScrapeWindow{}, fmt.Errorf("scrape window end %s is after start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	return ScrapeWindow{Start: start, End: end}, nil
}

// Validate checks the configuration for errors that must abort startup.
func (c *Config) Validate() error {
	switch SyncMode(c.Douban.Mode) {
	case ModeScrapeAndAdd, ModeScrapeOnly, ModeAddFromFile:
	default:
		return fmt.Errorf("invalid douban.mode %q", c.Douban.Mode)
	}

	if SyncMode(c.Douban.Mode) == ModeAddFromFile && strings.TrimSpace(c.Douban.ListFilePath) == "" {
		return errors.New("douban.mode is add_from_file but douban.listFilePath is not set")
	}

	if len(c.Douban.Users()) == 0 {
		return errors.New("douban.userDomains is empty")
	}

	for _, cat := range c.Douban.CategoryList() {
		switch cat {
		case CategoryMovie, CategoryMusic:
		default:
			return fmt.Errorf("unsupported douban category %q", cat)
		}
	}

	for _, lt := range c.Douban.ListTypeList() {
		switch lt {
		case ListTypeWish, ListTypeDoing, ListTypeCollect:
		default:
			return fmt.Errorf("unsupported douban list type %q", lt)
		}
	}

	if _, err := c.Douban.Window(time.Now()); err != nil {
		return err
	}

	return nil
}
