package port

import (
	"clipstream/internal/core/domain"
	"context"
)

// ContentCache is an interface to define the local cache for remote
// playback content
type ContentCache interface {
	// Resolve returns a playable local path for remoteURI, downloading
	// on miss. On download failure it returns remoteURI unchanged, so
	// callers must accept either a local path or the original URI.
	Resolve(ctx context.Context, remoteURI string) string
	// Put adopts an already-local file as the cached copy for remoteURI.
	Put(ctx context.Context, remoteURI, localPath string) error
	Invalidate(remoteURI string) error
	Clear() error
	Entries() []domain.CacheEntry
}

// Downloader fetches remote content to a local file
type Downloader interface {
	Fetch(ctx context.Context, url, destPath string) (int64, error)
}
