// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the application configuration with viper, layering
// defaults, an optional config.toml and LISTARR__ environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/listarr/listarr/internal/domain"
)

// AppConfig wraps the resolved configuration plus where it came from.
type AppConfig struct {
	Config *domain.Config

	configPath string
}

// EnvPrefix is the environment override prefix, e.g. LISTARR__LOG_LEVEL.
const EnvPrefix = "LISTARR__"

// New loads configuration. configPath may be a file, a directory containing
// config.toml, or empty to use the current working directory. A missing or
// unreadable config file is fatal; everything else in a run degrades
// per-combination instead.
func New(configPath, version string) (*AppConfig, error) {
	c := &AppConfig{
		Config: &domain.Config{Version: version},
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	switch {
	case configPath == "":
		v.SetConfigName("config")
		v.AddConfigPath(".")
	default:
		info, err := os.Stat(configPath)
		if err != nil {
			return nil, fmt.Errorf("config path %q: %w", configPath, err)
		}
		if info.IsDir() {
			v.SetConfigName("config")
			v.AddConfigPath(configPath)
		} else {
			v.SetConfigFile(configPath)
		}
	}

	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	c.configPath = v.ConfigFileUsed()

	if err := v.Unmarshal(c.Config); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if c.Config.DataDir == "" {
		c.Config.DataDir = filepath.Dir(c.configPath)
	}

	if err := c.Config.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// ConfigPath returns the config file that was loaded.
func (c *AppConfig) ConfigPath() string {
	return c.configPath
}

// ListsDir returns the directory persisted list files are written to.
func (c *AppConfig) ListsDir() string {
	return filepath.Join(c.Config.DataDir, "lists")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "INFO")
	v.SetDefault("logPath", "")
	v.SetDefault("logMaxSize", 50)
	v.SetDefault("logMaxBackups", 3)

	v.SetDefault("douban.categories", []string{"movie"})
	v.SetDefault("douban.listTypes", []string{"wish", "do", "collect"})
	v.SetDefault("douban.startDate", "today")
	v.SetDefault("douban.endDate", "epoch")
	v.SetDefault("douban.maxScrapingDays", 365)
	v.SetDefault("douban.startPage", 1)
	v.SetDefault("douban.mode", string(domain.ModeScrapeAndAdd))
	v.SetDefault("douban.instantAdd", false)
	v.SetDefault("douban.saveLists", true)

	v.SetDefault("radarr.rootFolderPath", "/movies")
	v.SetDefault("radarr.qualityProfileId", 1)
	v.SetDefault("radarr.monitored", true)
	v.SetDefault("radarr.minimumAvailability", "announced")

	v.SetDefault("sonarr.rootFolderPath", "/tv")
	v.SetDefault("sonarr.qualityProfileId", 1)
	v.SetDefault("sonarr.languageProfileId", 1)
	v.SetDefault("sonarr.seriesType", "standard")
	v.SetDefault("sonarr.seasonFolder", true)
	v.SetDefault("sonarr.monitored", true)

	v.SetDefault("lidarr.rootFolderPath", "/music")
	v.SetDefault("lidarr.qualityProfileId", 1)
	v.SetDefault("lidarr.metadataProfileId", 1)
	v.SetDefault("lidarr.monitored", true)
}

// bindEnv maps LISTARR__SECTION_KEY variables onto config keys, the same
// double-underscore scheme the rest of the autobrr family uses.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"logLevel", "logPath", "dataDir",
		"douban.cookies", "douban.mode", "douban.listFilePath",
		"radarr.apiKey", "radarr.host", "radarr.port",
		"sonarr.apiKey", "sonarr.host", "sonarr.port",
		"lidarr.apiKey", "lidarr.host", "lidarr.port",
	} {
		_ = v.BindEnv(key, EnvPrefix+envKey(key))
	}
}

// envKey converts a viper key like "radarr.apiKey" to RADARR_API_KEY.
func envKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r == '.':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			b.WriteByte('_')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}
