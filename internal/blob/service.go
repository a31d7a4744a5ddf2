// Package blob issues presigned URLs for attachment content. The API never
// proxies file bytes; clients upload and download directly against object
// storage using short-lived URLs, and the database keeps only object keys.
package blob

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	UploadTTL time.Duration
}

type Service struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

// New connects to object storage and ensures the bucket exists.
func New(ctx context.Context, cfg Config) (*Service, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("blob: connect: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("blob: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("blob: create bucket: %w", err)
		}
	}

	ttl := cfg.UploadTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Service{client: client, bucket: cfg.Bucket, ttl: ttl}, nil
}

// ObjectKey builds the storage key for an attachment. Keys are namespaced by
// card so orphan sweeps can prefix-scan.
func ObjectKey(cardID, attachmentID, filename string) string {
	safe := sanitizeFilename(filename)
	return path.Join("attachments", cardID, attachmentID+"_"+safe)
}

// PresignUpload returns a URL the client can PUT the file bytes to.
func (s *Service) PresignUpload(ctx context.Context, objectKey string) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, objectKey, s.ttl)
	if err != nil {
		return "", fmt.Errorf("blob: presign upload: %w", err)
	}
	return u.String(), nil
}

// PresignDownload returns a URL the client can GET the file bytes from, with
// a content-disposition forcing the original filename.
func (s *Service) PresignDownload(ctx context.Context, objectKey, filename string) (string, error) {
	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", sanitizeFilename(filename)))
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, s.ttl, params)
	if err != nil {
		return "", fmt.Errorf("blob: presign download: %w", err)
	}
	return u.String(), nil
}

// Remove deletes the stored object. Missing objects are not an error; the
// attachment row may exist before the client ever uploaded.
func (s *Service) Remove(ctx context.Context, objectKey string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("blob: remove: %w", err)
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = path.Base(name)
	if name == "/" || name == "." {
		name = ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
