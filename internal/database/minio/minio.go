// Package minio archives raw uploads so the original bytes survive
// re-chunking and re-embedding with different settings.
package minio

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"studypal/internal/config"
	"studypal/pkg/logger"
)

// Client wraps the MinIO SDK client and the archive bucket name.
type Client struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

// NewClient connects to MinIO and makes sure the archive bucket exists.
func NewClient(ctx context.Context, cfg *config.MinIOConfig) (*Client, error) {
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := c.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := c.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
	}

	log := logger.New("minio")
	log.WithField("endpoint", cfg.Endpoint).Info("connected to minio")
	return &Client{client: c, bucket: cfg.Bucket, log: log}, nil
}

// Archive stores the raw bytes of an upload under the given object key and
// returns the key.
func (c *Client) Archive(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	_, err := c.client.PutObject(ctx, c.bucket, objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("archive object %q: %w", objectKey, err)
	}
	return objectKey, nil
}

// Fetch retrieves an archived upload.
func (c *Client) Fetch(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch object %q: %w", objectKey, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("read object %q: %w", objectKey, err)
	}
	return buf.Bytes(), nil
}

// HealthCheck verifies connectivity and credentials.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("minio health check failed: %w", err)
	}
	return nil
}
