// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# listarr configuration
# Environment overrides use the LISTARR__ prefix, e.g. LISTARR__RADARR_API_KEY.

logLevel = "INFO"
# logPath = "listarr.log"

[douban]
cookies = ""
userDomains = ["your-user-domain"]
# Categories to scrape: movie (also yields series), music.
categories = ["movie"]
listTypes = ["wish", "do", "collect"]
# startDate accepts "today" or yyyy-MM-dd; endDate accepts "epoch" or yyyy-MM-dd.
startDate = "today"
endDate = "epoch"
maxScrapingDays = 365
startPage = 1
# Modes: scrape_and_add, scrape_only, add_from_file.
mode = "scrape_and_add"
instantAdd = false
saveLists = true
listFilePath = ""

[radarr]
host = "localhost"
port = 7878
urlBase = ""
apiKey = ""
https = false
rootFolderPath = "/movies"
qualityProfileId = 1
monitored = true
minimumAvailability = "announced"
[radarr.addOptions]
searchForMovie = true

[sonarr]
host = "localhost"
port = 8989
urlBase = ""
apiKey = ""
https = false
rootFolderPath = "/tv"
qualityProfileId = 1
languageProfileId = 1
seriesType = "standard"
seasonFolder = true
monitored = true
[sonarr.addOptions]
searchForMissingEpisodes = true
# [[sonarr.genreRoutes]]
# genre = "纪录片"
# rootFolderPath = "/tv/documentary"
# seriesType = "standard"

[lidarr]
host = "localhost"
port = 8686
urlBase = ""
apiKey = ""
https = false
rootFolderPath = "/music"
qualityProfileId = 1
metadataProfileId = 1
monitored = true
`

// WriteDefault writes the starter config file. It refuses to overwrite an
// existing file.
func WriteDefault(path string) error {
	if path == "" {
		path = "config.toml"
	}
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			path = filepath.Join(path, "config.toml")
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file %s already exists", path)
			}
		} else {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	return os.WriteFile(path, []byte(configTemplate), 0o644)
}
