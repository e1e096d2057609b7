// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
[douban]
userDomains = ["alice"]

[radarr]
host = "localhost"
port = 7878
apiKey = "abc"
`

func TestNewLoadsFileAndDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	c, err := New(path, "test")
	require.NoError(t, err)

	cfg := c.Config
	assert.Equal(t, []string{"alice"}, cfg.Douban.Users())
	assert.Equal(t, "localhost", cfg.Radarr.Host)
	assert.Equal(t, "abc", cfg.Radarr.APIKey)

	// Defaults fill in everything the file omits.
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "scrape_and_add", cfg.Douban.Mode)
	assert.Equal(t, []string{"wish", "do", "collect"}, cfg.Douban.ListTypes)
	assert.Equal(t, "/movies", cfg.Radarr.RootFolderPath)
	assert.Equal(t, "announced", cfg.Radarr.MinimumAvailability)
	assert.True(t, cfg.Sonarr.SeasonFolder)
}

func TestNewAcceptsDirectory(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	c, err := New(filepath.Dir(path), "test")
	require.NoError(t, err)
	assert.Equal(t, path, c.ConfigPath())
}

func TestDataDirDefaultsToConfigDir(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	c, err := New(path, "test")
	require.NoError(t, err)

	assert.Equal(t, filepath.Dir(path), c.Config.DataDir)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "lists"), c.ListsDir())
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	t.Setenv("LISTARR__RADARR_API_KEY", "from-env")
	t.Setenv("LISTARR__DOUBAN_MODE", "scrape_only")

	c, err := New(path, "test")
	require.NoError(t, err)

	assert.Equal(t, "from-env", c.Config.Radarr.APIKey)
	assert.Equal(t, "scrape_only", c.Config.Douban.Mode)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
[douban]
userDomains = ["alice"]
mode = "nonsense"
`)

	_, err := New(path, "test")
	require.Error(t, err)
}

func TestNewMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.toml"), "test")
	require.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "LOG_LEVEL", envKey("logLevel"))
	assert.Equal(t, "RADARR_API_KEY", envKey("radarr.apiKey"))
	assert.Equal(t, "DOUBAN_LIST_FILE_PATH", envKey("douban.listFilePath"))
}
