package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/pkg/config"
)

// MinIOClient wraps MinIO operations and doubles as the durable media store
type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string // Public URL for generating accessible URLs (e.g., https://minio.example.com)
	urlExpiry time.Duration
}

// NewMinIOClient creates a new MinIO client and makes sure the bucket exists
func NewMinIOClient(ctx context.Context, cfg *config.StorageConfig) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client:    minioClient,
		bucket:    cfg.BucketName,
		publicURL: cfg.PublicURL,
		urlExpiry: cfg.URLExpiry,
	}

	// MinIO is often still starting when the API boots
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(func() error {
		return client.ensureBucket(ctx)
	}, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	log.Printf("✅ MinIO bucket %s ready", cfg.BucketName)
	return client, nil
}

// ensureBucket ensures the bucket exists. Media stays private; clients get presigned URLs.
func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// UploadFile uploads a file to MinIO
func (m *MinIOClient) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

// GetFileURL gets a presigned URL for accessing a file
func (m *MinIOClient) GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	// When MinIO sits behind a reverse proxy, swap the internal endpoint for the public one
	if m.publicURL != "" {
		return rewriteHost(u, m.publicURL)
	}
	return u.String(), nil
}

// Publish uploads session media and returns a presigned playable URL
func (m *MinIOClient) Publish(ctx context.Context, key string, file *entities.MediaFile) (string, error) {
	objectName := mediaObjectName(key)
	if err := m.UploadFile(ctx, objectName, bytes.NewReader(file.Data), int64(len(file.Data)), file.MIMEType); err != nil {
		return "", err
	}
	return m.GetFileURL(ctx, objectName, m.urlExpiry)
}

// Remove deletes session media
func (m *MinIOClient) Remove(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, mediaObjectName(key), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

func mediaObjectName(key string) string {
	return path.Join("sessions", "media", key)
}

// rewriteHost keeps path and query of u but uses the scheme and host of public
func rewriteHost(u *url.URL, public string) (string, error) {
	p, err := url.Parse(public)
	if err != nil {
		return "", fmt.Errorf("invalid public URL: %w", err)
	}
	out := *u
	out.Scheme = p.Scheme
	out.Host = p.Host
	return out.String(), nil
}
