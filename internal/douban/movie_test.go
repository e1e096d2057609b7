// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package douban

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listarr/listarr/internal/domain"
)

const movieDetailHTML = `<html><body>
<span property="v:itemreviewed">地球改变之年 The Year Earth Changed</span>
<span class="year">(2021)</span>
<span property="v:genre">纪录片</span>
<span class="pl">又名:</span> 改变地球的一年 / 地球改变的一年<br/>
<span property="v:initialReleaseDate" content="2021-04-16(美国)"></span>
<span class="pl">IMDb: </span>tt14372172<br>
</body></html>`

const seriesDetailHTML = `<html><body>
<span property="v:itemreviewed">权力的游戏 第八季 Game of Thrones Season 8</span>
<span class="year">(2019)</span>
<span property="v:genre">剧情</span>
<span property="v:genre">奇幻</span>
<span class="pl">又名:</span> 冰与火之歌：权力的游戏<br/>
<span class="pl">IMDb: </span>tt0944947<br>
<span class="pl">季数:</span> 8<br/>
<span class="pl">集数:</span> 6<br/>
</body></html>`

const seriesNoMarkerHTML = `<html><body>
<span property="v:itemreviewed">风骚律师 Better Call Saul</span>
<span class="pl">IMDb: </span>tt3032476<br>
<span class="pl">集数:</span> 10<br/>
</body></html>`

func detailServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
}

func TestResolveMovie(t *testing.T) {
	t.Parallel()

	srv := detailServer(t, map[string]string{"/subject/35236165/": movieDetailHTML})
	defer srv.Close()

	c := testCrawler(srv.URL)
	entry, err := c.ResolveMovie(context.Background(), "35236165")
	require.NoError(t, err)

	assert.Equal(t, domain.MediaTypeMovie, entry.Type)
	assert.Equal(t, []string{"地球改变之年", "The Year Earth Changed"}, entry.Titles)
	assert.Equal(t, "The Year Earth Changed", entry.OriginalTitle)
	assert.Equal(t, "tt14372172", entry.ExternalID)
	assert.Equal(t, "2021", entry.Year)
	assert.Equal(t, []string{"纪录片"}, entry.Genres)
	assert.Equal(t, []string{"改变地球的一年", "地球改变的一年"}, entry.Aliases)
	require.Len(t, entry.ReleaseDates, 1)
	assert.Equal(t, domain.ReleaseDate{Date: "2021-04-16", Region: "美国"}, entry.ReleaseDates[0])
	assert.Zero(t, entry.Episodes)
}

func TestResolveMovieDetectsSeries(t *testing.T) {
	t.Parallel()

	srv := detailServer(t, map[string]string{"/subject/25861974/": seriesDetailHTML})
	defer srv.Close()

	c := testCrawler(srv.URL)
	entry, err := c.ResolveMovie(context.Background(), "25861974")
	require.NoError(t, err)

	assert.Equal(t, domain.MediaTypeSeries, entry.Type)
	// The local title keeps its season marker; the split happens after it,
	// not at the first space.
	assert.Equal(t, "权力的游戏 第八季", entry.Title())
	assert.Equal(t, "Game of Thrones Season 8", entry.OriginalTitle)
	assert.Equal(t, 8, entry.Seasons)
	assert.Equal(t, 6, entry.Episodes)
	assert.Equal(t, "tt0944947", entry.ExternalID)
	assert.Equal(t, []string{"剧情", "奇幻"}, entry.Genres)
}

func TestResolveMovieSeriesWithoutSeasonMarker(t *testing.T) {
	t.Parallel()

	srv := detailServer(t, map[string]string{"/subject/1/": seriesNoMarkerHTML})
	defer srv.Close()

	c := testCrawler(srv.URL)
	entry, err := c.ResolveMovie(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, domain.MediaTypeSeries, entry.Type)
	assert.Equal(t, "风骚律师", entry.Title())
	assert.Equal(t, "Better Call Saul", entry.OriginalTitle)
	assert.Equal(t, 1, entry.Seasons)
}

func TestResolveMovieMissingTitle(t *testing.T) {
	t.Parallel()

	srv := detailServer(t, map[string]string{"/subject/2/": "<html><body>nothing here</body></html>"})
	defer srv.Close()

	c := testCrawler(srv.URL)
	_, err := c.ResolveMovie(context.Background(), "2")
	require.ErrorIs(t, err, ErrNoTitle)
}
