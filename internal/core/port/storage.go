package port

import (
	"context"
	"io"
	"time"
)

// ObjectStorage is an interface to define remote object storage interactions
type ObjectStorage interface {
	// Put streams size bytes from r into the object identified by key and
	// returns the resulting upload info. Cancelling ctx aborts the transfer
	// and releases the underlying handle.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (etag string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// ObjectURL returns a retrievable URL for key: the public object URL
	// when the bucket is public-read, otherwise a time-limited signed URL.
	ObjectURL(ctx context.Context, key string) (string, *time.Time, error)
}
