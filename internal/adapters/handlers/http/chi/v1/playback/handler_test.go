package playback_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"clipstream/internal/adapters/handlers/http/chi/v1/playback"
	"clipstream/internal/core/service/contentcache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T, cache *contentcache.MockContentCache) *httptest.Server {
	t.Helper()
	handler := playback.NewPlaybackHandlerV1(cache, testLogger())
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveV1_CacheHit(t *testing.T) {
	// Arrange
	const remote = "https://cdn.example.com/videos/clip.mp4"
	cache := contentcache.NewMockContentCache()
	cache.On("Resolve", mock.Anything, remote).Return("/data/cache/abcd.mp4")
	srv := newServer(t, cache)

	// Act
	resp, err := http.Get(srv.URL + "/resolve?uri=" + url.QueryEscape(remote))

	// Assert
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body playback.V1ResolveResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "/data/cache/abcd.mp4", body.URI)
	assert.True(t, body.Cached)
}

func TestResolveV1_FallsBackToRemote(t *testing.T) {
	// Arrange: the cache returns the remote URI unchanged on failure.
	const remote = "https://cdn.example.com/videos/clip.mp4"
	cache := contentcache.NewMockContentCache()
	cache.On("Resolve", mock.Anything, remote).Return(remote)
	srv := newServer(t, cache)

	// Act
	resp, err := http.Get(srv.URL + "/resolve?uri=" + url.QueryEscape(remote))

	// Assert
	require.NoError(t, err)
	defer resp.Body.Close()

	var body playback.V1ResolveResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, remote, body.URI)
	assert.False(t, body.Cached)
}

func TestResolveV1_MissingURI(t *testing.T) {
	// Arrange
	cache := contentcache.NewMockContentCache()
	srv := newServer(t, cache)

	// Act
	resp, err := http.Get(srv.URL + "/resolve")

	// Assert
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	cache.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestInvalidateV1_SingleEntry(t *testing.T) {
	// Arrange
	const remote = "https://cdn.example.com/videos/clip.mp4"
	cache := contentcache.NewMockContentCache()
	cache.On("Invalidate", remote).Return(nil)
	srv := newServer(t, cache)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/cache?uri="+url.QueryEscape(remote), nil)
	require.NoError(t, err)

	// Act
	resp, err := http.DefaultClient.Do(req)

	// Assert
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	cache.AssertCalled(t, "Invalidate", remote)
	cache.AssertNotCalled(t, "Clear")
}

func TestInvalidateV1_WholeCache(t *testing.T) {
	// Arrange
	cache := contentcache.NewMockContentCache()
	cache.On("Clear").Return(nil)
	srv := newServer(t, cache)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/cache", nil)
	require.NoError(t, err)

	// Act
	resp, err := http.DefaultClient.Do(req)

	// Assert
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	cache.AssertCalled(t, "Clear")
}

func TestInvalidateV1_CacheErrorSurfaces(t *testing.T) {
	// Arrange
	cache := contentcache.NewMockContentCache()
	cache.On("Clear").Return(errors.New("io failure"))
	srv := newServer(t, cache)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/cache", nil)
	require.NoError(t, err)

	// Act
	resp, err := http.DefaultClient.Do(req)

	// Assert
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
