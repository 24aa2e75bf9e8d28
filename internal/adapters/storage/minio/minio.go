package minio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"clipstream/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Adapter is an adapter for minio
type Adapter struct {
	client *minio.Client
	config config.MinioConfig
	logger *slog.Logger
}

// NewAdapter returns Adapter
func NewAdapter(ctx context.Context, cfg config.MinioConfig, logger *slog.Logger) (*Adapter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Adapter{client: client, config: cfg, logger: logger}, nil
}

// Put streams the object to the bucket with a one-year cache-control
// header. Cancelling ctx aborts the transfer.
func (a *Adapter) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	info, err := a.client.PutObject(ctx, a.config.BucketName, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: a.config.UploadCacheControl,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	a.logger.Info("object stored",
		slog.String("key", key),
		slog.Int64("size", info.Size))

	return info.ETag, nil
}

// Get retrieves an object
func (a *Adapter) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := a.client.GetObject(ctx, a.config.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return object, nil
}

// Delete deletes an object from storage
func (a *Adapter) Delete(ctx context.Context, key string) error {
	err := a.client.RemoveObject(ctx, a.config.BucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// ObjectURL returns a retrievable URL for key. Public-read deployments
// (bucket policy makes objects world-readable) get the direct object URL
// with no expiry; otherwise a time-limited signed URL is issued.
func (a *Adapter) ObjectURL(ctx context.Context, key string) (string, *time.Time, error) {
	if a.config.PublicRead {
		return fmt.Sprintf("%s/%s/%s", a.client.EndpointURL().String(), a.config.BucketName, key), nil, nil
	}

	presignedURL, err := a.client.PresignedGetObject(ctx, a.config.BucketName, key, a.config.DownloadSignedDuration, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	expiresAt := time.Now().Add(a.config.DownloadSignedDuration)
	return presignedURL.String(), &expiresAt, nil
}
