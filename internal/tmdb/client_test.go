package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/moviebase/internal/domain"
)

const multiSearchBody = `{
  "page": 1,
  "results": [
    {"id": 603, "media_type": "movie", "title": "The Matrix", "poster_path": "/m.jpg", "release_date": "1999-03-31"},
    {"id": 6384, "media_type": "person", "name": "Keanu Reeves"},
    {"id": 1399, "media_type": "tv", "name": "Game of Thrones", "poster_path": null, "first_air_date": "2011-04-17"}
  ],
  "total_results": 3
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("secret", nil, WithBaseURL(srv.URL), WithRetries(3, 0))
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/multi", r.URL.Path)
		assert.Equal(t, "the matrix", r.URL.Query().Get("query"))
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		w.Write([]byte(multiSearchBody))
	})

	results, err := c.Search(context.Background(), "the matrix")
	require.NoError(t, err)
	require.Len(t, results, 3)

	movie, ok := domain.ItemFromSearchResult(results[0])
	require.True(t, ok)
	assert.Equal(t, domain.CatalogItem{ID: 603, Kind: domain.MediaKindMovie, Title: "The Matrix", PosterPath: results[0].PosterPath, ReleaseDate: "1999-03-31"}, movie)

	_, ok = domain.ItemFromSearchResult(results[1])
	assert.False(t, ok, "people are not catalog items")

	show, ok := domain.ItemFromSearchResult(results[2])
	require.True(t, ok)
	assert.Equal(t, domain.MediaKindSeries, show.Kind)
	assert.Equal(t, "Game of Thrones", show.Title)
	assert.Equal(t, "2011-04-17", show.ReleaseDate)
	assert.Nil(t, show.PosterPath)
}

func TestSearchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(multiSearchBody))
	})

	results, err := c.Search(context.Background(), "matrix")
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearchGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Search(context.Background(), "matrix")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Search(context.Background(), "matrix")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearchRequiresAPIKey(t *testing.T) {
	c := NewClient("", nil)
	_, err := c.Search(context.Background(), "matrix")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
