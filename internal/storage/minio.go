package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

// ErrDisabled is returned when attachments are not configured.
var ErrDisabled = errors.New("file storage is not configured")

// ObjectStore keeps request attachments.
type ObjectStore interface {
	Upload(ctx context.Context, prefix, fileName string, r io.Reader, size int64) (Object, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// Object describes a stored attachment.
type Object struct {
	Key         string
	ContentType string
	Size        int64
}

type MinIOClient struct {
	client     *minio.Client
	bucketName string
}

// NewMinIOClient connects to MinIO and creates the bucket if needed.
func NewMinIOClient(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOClient, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.WithField("bucket", bucketName).Info("bucket created")
	}

	return &MinIOClient{client: client, bucketName: bucketName}, nil
}

// ObjectKey builds "<prefix>/<uuid><ext>" so original names never collide.
func ObjectKey(prefix, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return prefix + "/" + uuid.NewString() + ext
}

// ContentType guesses from the extension, defaulting to octet-stream.
func ContentType(fileName string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (m *MinIOClient) Upload(ctx context.Context, prefix, fileName string, r io.Reader, size int64) (Object, error) {
	obj := Object{Key: ObjectKey(prefix, fileName), ContentType: ContentType(fileName)}
	info, err := m.client.PutObject(ctx, m.bucketName, obj.Key, r, size, minio.PutObjectOptions{
		ContentType: obj.ContentType,
	})
	if err != nil {
		return Object{}, fmt.Errorf("failed to upload file: %w", err)
	}
	obj.Size = info.Size

	log.WithFields(log.Fields{"key": obj.Key, "size": obj.Size}).Info("file uploaded")
	return obj, nil
}

func (m *MinIOClient) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucketName, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}

func (m *MinIOClient) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

type disabledStore struct{}

// Disabled is used when MinIO is not configured; every call fails with
// ErrDisabled.
func Disabled() ObjectStore { return disabledStore{} }

func (disabledStore) Upload(context.Context, string, string, io.Reader, int64) (Object, error) {
	return Object{}, ErrDisabled
}

func (disabledStore) PresignedURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrDisabled
}

func (disabledStore) Delete(context.Context, string) error { return ErrDisabled }
