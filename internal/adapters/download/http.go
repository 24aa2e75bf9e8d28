package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"clipstream/internal/core/port"

	"github.com/google/uuid"
)

// HTTPDownloader fetches remote content over plain HTTP(S). Payloads are
// written to a temp file and renamed into place so a failed download
// never leaves a half-written destination.
type HTTPDownloader struct {
	client *http.Client
}

func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	return &HTTPDownloader{
		client: &http.Client{Timeout: timeout},
	}
}

var _ port.Downloader = (*HTTPDownloader)(nil)

// Fetch downloads url to destPath and returns the byte count.
func (d *HTTPDownloader) Fetch(ctx context.Context, url, destPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	// Unique temp name per call, so concurrent fetches of the same key
	// never rename each other's half-written payloads into place.
	tmp := fmt.Sprintf("%s.%d_%s.tmp", destPath, time.Now().UnixMilli(), uuid.NewString()[:8])
	out, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, err
	}

	if err := os.Rename(tmp, destPath); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return n, nil
}
