package contentcache_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"clipstream/internal/config"
	"clipstream/internal/core/service/contentcache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCacheConfig(dir string) config.CacheConfig {
	return config.CacheConfig{
		Dir:          dir,
		MaxBytes:     1 << 20,
		MaxAge:       time.Hour,
		JanitorEvery: time.Minute,
	}
}

// fakeDownloader writes a fixed payload to the destination, or fails.
type fakeDownloader struct {
	mu      sync.Mutex
	calls   int
	payload []byte
	err     error
}

func (d *fakeDownloader) Fetch(ctx context.Context, remoteURI, destPath string) (int64, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()

	if d.err != nil {
		return 0, d.err
	}
	if err := os.WriteFile(destPath, d.payload, 0o644); err != nil {
		return 0, err
	}
	return int64(len(d.payload)), nil
}

func (d *fakeDownloader) fetchCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func TestCache_ResolveMissDownloadsThenHitsLocally(t *testing.T) {
	// Arrange
	ctx := context.Background()
	dl := &fakeDownloader{payload: []byte("video-bytes")}
	c, err := contentcache.NewCache(testCacheConfig(t.TempDir()), dl, testLogger())
	require.NoError(t, err)

	const uri = "https://cdn.example.com/videos/clip.mp4"

	// Act: first resolve downloads, second serves the local copy.
	first := c.Resolve(ctx, uri)
	second := c.Resolve(ctx, uri)

	// Assert
	assert.Equal(t, first, second)
	assert.NotEqual(t, uri, first)
	assert.Equal(t, ".mp4", filepath.Ext(first), "cached copy keeps the remote extension")
	assert.Equal(t, 1, dl.fetchCount())

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, []byte("video-bytes"), data)
}

func TestCache_SameURIMapsToSameKey(t *testing.T) {
	assert.Equal(t, contentcache.Key("https://a/b.mp4"), contentcache.Key("https://a/b.mp4"))
	assert.NotEqual(t, contentcache.Key("https://a/b.mp4"), contentcache.Key("https://a/c.mp4"))
	assert.Len(t, contentcache.Key("anything"), 32)
}

func TestCache_ExpiredEntryIsReFetched(t *testing.T) {
	// Arrange: entries expire almost immediately.
	ctx := context.Background()
	cfg := testCacheConfig(t.TempDir())
	cfg.MaxAge = 10 * time.Millisecond
	dl := &fakeDownloader{payload: []byte("video-bytes")}
	c, err := contentcache.NewCache(cfg, dl, testLogger())
	require.NoError(t, err)

	const uri = "https://cdn.example.com/videos/clip.mp4"
	c.Resolve(ctx, uri)

	// Act
	time.Sleep(25 * time.Millisecond)
	resolved := c.Resolve(ctx, uri)

	// Assert: the stale copy was dropped and fetched again.
	assert.NotEqual(t, uri, resolved)
	assert.Equal(t, 2, dl.fetchCount())
}

func TestCache_DownloadFailureFallsBackToRemoteURI(t *testing.T) {
	// Arrange
	ctx := context.Background()
	dl := &fakeDownloader{err: errors.New("connection refused")}
	c, err := contentcache.NewCache(testCacheConfig(t.TempDir()), dl, testLogger())
	require.NoError(t, err)

	const uri = "https://cdn.example.com/videos/clip.mp4"

	// Act
	resolved := c.Resolve(ctx, uri)

	// Assert: caller gets the remote URI back and nothing is recorded.
	assert.Equal(t, uri, resolved)
	assert.Empty(t, c.Entries())
}

func TestCache_PutAdoptsLocalFile(t *testing.T) {
	// Arrange
	ctx := context.Background()
	dl := &fakeDownloader{err: errors.New("must not be called")}
	c, err := contentcache.NewCache(testCacheConfig(t.TempDir()), dl, testLogger())
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "thumb.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg-bytes"), 0o644))
	const uri = "https://cdn.example.com/thumbs/thumb.jpg"

	// Act
	require.NoError(t, c.Put(ctx, uri, src))
	resolved := c.Resolve(ctx, uri)

	// Assert: resolve hits the seeded copy without downloading.
	assert.NotEqual(t, uri, resolved)
	assert.Zero(t, dl.fetchCount())
	assert.Equal(t, int64(len("jpeg-bytes")), c.TotalSize())
}

func TestCache_EvictsOldestWhenOverCapacity(t *testing.T) {
	// Arrange: room for two 10-byte entries, not three.
	ctx := context.Background()
	cfg := testCacheConfig(t.TempDir())
	cfg.MaxBytes = 25
	dl := &fakeDownloader{payload: []byte("0123456789")}
	c, err := contentcache.NewCache(cfg, dl, testLogger())
	require.NoError(t, err)

	oldest := c.Resolve(ctx, "https://cdn.example.com/videos/a.mp4")
	time.Sleep(5 * time.Millisecond)
	c.Resolve(ctx, "https://cdn.example.com/videos/b.mp4")
	time.Sleep(5 * time.Millisecond)

	// Act: the third entry pushes the total past the cap.
	c.Resolve(ctx, "https://cdn.example.com/videos/c.mp4")

	// Assert: the oldest entry and its files are gone.
	entries := c.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotEqual(t, "https://cdn.example.com/videos/a.mp4", e.RemoteURI)
	}
	_, statErr := os.Stat(oldest)
	assert.True(t, os.IsNotExist(statErr))
	assert.LessOrEqual(t, c.TotalSize(), cfg.MaxBytes)
}

func TestCache_InvalidateRemovesSingleEntry(t *testing.T) {
	// Arrange
	ctx := context.Background()
	dl := &fakeDownloader{payload: []byte("video-bytes")}
	c, err := contentcache.NewCache(testCacheConfig(t.TempDir()), dl, testLogger())
	require.NoError(t, err)

	keep := "https://cdn.example.com/videos/keep.mp4"
	drop := "https://cdn.example.com/videos/drop.mp4"
	c.Resolve(ctx, keep)
	dropped := c.Resolve(ctx, drop)

	// Act
	require.NoError(t, c.Invalidate(drop))

	// Assert
	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, keep, entries[0].RemoteURI)
	_, statErr := os.Stat(dropped)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCache_ClearRemovesEverything(t *testing.T) {
	// Arrange
	ctx := context.Background()
	dir := t.TempDir()
	dl := &fakeDownloader{payload: []byte("video-bytes")}
	c, err := contentcache.NewCache(testCacheConfig(dir), dl, testLogger())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		c.Resolve(ctx, fmt.Sprintf("https://cdn.example.com/videos/%d.mp4", i))
	}

	// Act
	require.NoError(t, c.Clear())

	// Assert: mapping table empty, no data or sidecar files left.
	assert.Empty(t, c.Entries())
	assert.Zero(t, c.TotalSize())
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCache_ScanRebuildsIndexFromSidecars(t *testing.T) {
	// Arrange: populate one cache instance, then open a second over the
	// same directory with a downloader that must not be used.
	ctx := context.Background()
	dir := t.TempDir()
	cfg := testCacheConfig(dir)

	first, err := contentcache.NewCache(cfg, &fakeDownloader{payload: []byte("video-bytes")}, testLogger())
	require.NoError(t, err)
	const uri = "https://cdn.example.com/videos/clip.mp4"
	cached := first.Resolve(ctx, uri)

	// Act
	second, err := contentcache.NewCache(cfg, &fakeDownloader{err: errors.New("must not be called")}, testLogger())
	require.NoError(t, err)

	// Assert: the rebuilt index serves the hit without downloading.
	assert.Equal(t, cached, second.Resolve(ctx, uri))
	require.Len(t, second.Entries(), 1)
	assert.Equal(t, uri, second.Entries()[0].RemoteURI)
}

func TestCache_ScanIgnoresOrphanDataFiles(t *testing.T) {
	// Arrange: a data file with no sidecar and a corrupt sidecar.
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deadbeef.mp4"), []byte("orphan"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cafebabe.meta.json"), []byte("{not json"), 0o644))

	// Act
	c, err := contentcache.NewCache(testCacheConfig(dir), &fakeDownloader{}, testLogger())

	// Assert
	require.NoError(t, err)
	assert.Empty(t, c.Entries())
}
