package contentcache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"clipstream/internal/config"
	"clipstream/internal/core/domain"
	"clipstream/internal/core/port"
)

const sidecarSuffix = ".meta.json"

// Cache maps remote content URIs to local copies, bounded by total size
// and entry age. Eviction is oldest-write-first: entry timestamps are set
// when content is stored and deliberately not refreshed on read hits, so
// this is LRU by write time, not by access time.
type Cache struct {
	cfg        config.CacheConfig
	downloader port.Downloader
	logger     *slog.Logger

	mu      sync.Mutex
	entries map[string]domain.CacheEntry
}

// NewCache creates the cache, scanning its storage directory to rebuild
// the mapping table from sidecar metadata. Data files without a readable
// sidecar are treated as orphans and left alone.
func NewCache(cfg config.CacheConfig, downloader port.Downloader, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCacheIO, err)
	}

	c := &Cache{
		cfg:        cfg,
		downloader: downloader,
		logger:     logger,
		entries:    make(map[string]domain.CacheEntry),
	}
	c.scan()
	return c, nil
}

var _ port.ContentCache = (*Cache)(nil)

// Key derives the deterministic cache key for a remote URI.
func Key(remoteURI string) string {
	sum := md5.Sum([]byte(remoteURI))
	return hex.EncodeToString(sum[:])
}

// Resolve returns a playable local path for remoteURI. Fresh hits are
// served as-is, expired entries are dropped and re-fetched, and on
// download failure the remote URI is returned unchanged so playback can
// fall back to streaming.
func (c *Cache) Resolve(ctx context.Context, remoteURI string) string {
	key := Key(remoteURI)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		if !entry.Expired(time.Now(), c.cfg.MaxAge) {
			if _, err := os.Stat(entry.LocalPath); err == nil {
				c.mu.Unlock()
				return entry.LocalPath
			}
			// File vanished under us: drop the stale mapping.
			delete(c.entries, key)
		} else {
			c.removeLocked(entry)
		}
	}
	c.mu.Unlock()

	localPath := c.dataPath(key, remoteURI)
	size, err := c.downloader.Fetch(ctx, remoteURI, localPath)
	if err != nil {
		c.logger.Warn("cache download failed, serving remote uri",
			slog.String("uri", remoteURI),
			slog.String("error", err.Error()))
		return remoteURI
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordLocked(domain.CacheEntry{
		Key:       key,
		RemoteURI: remoteURI,
		LocalPath: localPath,
		Size:      size,
		StoredAt:  time.Now(),
	})
	return localPath
}

// Put adopts an already-local file as the cached copy for remoteURI by
// copying it into the cache directory.
func (c *Cache) Put(ctx context.Context, remoteURI, localPath string) error {
	key := Key(remoteURI)
	destPath := c.dataPath(key, remoteURI)

	size, err := copyFile(localPath, destPath)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCacheIO, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordLocked(domain.CacheEntry{
		Key:       key,
		RemoteURI: remoteURI,
		LocalPath: destPath,
		Size:      size,
		StoredAt:  time.Now(),
	})
	return nil
}

// Invalidate removes the cached copy for remoteURI, if any.
func (c *Cache) Invalidate(remoteURI string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[Key(remoteURI)]; ok {
		c.removeLocked(entry)
	}
	return nil
}

// Clear removes every cached entry and its files.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		c.removeLocked(entry)
	}
	return nil
}

// Entries returns a snapshot of the mapping table.
func (c *Cache) Entries() []domain.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.CacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// TotalSize returns the tracked byte total.
func (c *Cache) TotalSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalLocked()
}

// RunJanitor periodically drops expired entries until ctx is cancelled.
func (c *Cache) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.JanitorEvery)
	defer ticker.Stop()

	c.logger.Info("cache janitor started", "interval", c.cfg.JanitorEvery)

	for {
		select {
		case <-ticker.C:
			removed := c.removeExpired()
			if removed > 0 {
				c.logger.Info("cache janitor removed expired entries", "count", removed)
			}
		case <-ctx.Done():
			c.logger.Info("cache janitor stopped")
			return
		}
	}
}

func (c *Cache) removeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for _, entry := range c.entries {
		if entry.Expired(now, c.cfg.MaxAge) {
			c.removeLocked(entry)
			removed++
		}
	}
	return removed
}

// recordLocked stores the entry, writes its sidecar and runs eviction.
func (c *Cache) recordLocked(entry domain.CacheEntry) {
	c.entries[entry.Key] = entry
	if err := writeSidecar(c.sidecarPath(entry.Key), entry); err != nil {
		c.logger.Warn("failed to write cache sidecar", "key", entry.Key, "error", err)
	}
	c.evictLocked()
}

// evictLocked removes oldest-timestamp entries (ties broken by key order)
// until the tracked total fits the configured capacity.
func (c *Cache) evictLocked() {
	total := c.totalLocked()
	for total > c.cfg.MaxBytes && len(c.entries) > 0 {
		victim := c.oldestLocked()
		c.removeLocked(victim)
		total -= victim.Size
		c.logger.Info("evicted cache entry",
			slog.String("key", victim.Key),
			slog.Int64("size", victim.Size))
	}
}

func (c *Cache) oldestLocked() domain.CacheEntry {
	var victim domain.CacheEntry
	first := true
	for _, entry := range c.entries {
		if first || entry.StoredAt.Before(victim.StoredAt) ||
			(entry.StoredAt.Equal(victim.StoredAt) && entry.Key < victim.Key) {
			victim = entry
			first = false
		}
	}
	return victim
}

func (c *Cache) removeLocked(entry domain.CacheEntry) {
	delete(c.entries, entry.Key)
	if err := os.Remove(entry.LocalPath); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("failed to remove cached file", "path", entry.LocalPath, "error", err)
	}
	if err := os.Remove(c.sidecarPath(entry.Key)); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("failed to remove cache sidecar", "key", entry.Key, "error", err)
	}
}

func (c *Cache) totalLocked() int64 {
	var total int64
	for _, entry := range c.entries {
		total += entry.Size
	}
	return total
}

// scan rebuilds the mapping table from sidecar files. Unreadable sidecars
// degrade to treating the entry as absent rather than failing startup.
func (c *Cache) scan() {
	files, err := os.ReadDir(c.cfg.Dir)
	if err != nil {
		c.logger.Warn("failed to scan cache dir", "dir", c.cfg.Dir, "error", err)
		return
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), sidecarSuffix) {
			continue
		}
		raw, readErr := os.ReadFile(filepath.Join(c.cfg.Dir, f.Name()))
		if readErr != nil {
			continue
		}
		var entry domain.CacheEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			c.logger.Warn("skipping unreadable cache sidecar", "file", f.Name())
			continue
		}
		if _, statErr := os.Stat(entry.LocalPath); statErr != nil {
			continue
		}
		c.entries[entry.Key] = entry
	}

	if len(c.entries) > 0 {
		c.logger.Info("cache index rebuilt", "entries", len(c.entries))
	}
}

// dataPath maps a key to its on-disk location, keeping the remote file
// extension so players can sniff the container format.
func (c *Cache) dataPath(key, remoteURI string) string {
	ext := ".dat"
	if parsed, err := url.Parse(remoteURI); err == nil {
		if e := path.Ext(parsed.Path); e != "" {
			ext = e
		}
	}
	return filepath.Join(c.cfg.Dir, key+ext)
}

func (c *Cache) sidecarPath(key string) string {
	return filepath.Join(c.cfg.Dir, key+sidecarSuffix)
}

// writeSidecar writes the entry metadata to a temp file then renames it
// into place.
func writeSidecar(dest string, entry domain.CacheEntry) error {
	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dest)
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := io.Copy(out, in)
	if err != nil {
		os.Remove(dst)
		return 0, err
	}
	return n, out.Sync()
}
