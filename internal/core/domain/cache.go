package domain

import "time"

// CacheEntry represents one cached remote-to-local mapping. Key is a
// pure function of the remote URI, so the same URI always maps to the
// same entry. StoredAt is set on write only and is never refreshed on
// a read hit.
type CacheEntry struct {
	Key       string    `json:"key"`
	RemoteURI string    `json:"remote_uri"`
	LocalPath string    `json:"local_path"`
	Size      int64     `json:"size"`
	StoredAt  time.Time `json:"stored_at"`
}

// Expired reports whether the entry is older than maxAge at the given time.
func (e CacheEntry) Expired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(e.StoredAt) > maxAge
}
