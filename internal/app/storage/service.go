/*
Package storage stores student photos in S3-compatible object storage.

Clients upload directly to the bucket with a presigned PUT URL; the server only
issues URLs, checks that uploaded objects exist and removes replaced ones.
*/
package storage

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrObjectNotFound is returned when the requested key does not exist in the bucket.
var ErrObjectNotFound = errors.New("storage: object not found")

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// PublicBaseURL prefixes object keys to form the URL stored on a student.
	PublicBaseURL string
}

// ObjectInfo is the subset of object metadata the service checks.
type ObjectInfo struct {
	ContentType string
	Size        int64
}

// StorageService defines the public interface for the file storage service.
type StorageService interface {
	// PresignUpload generates a pre-signed URL for uploading a file.
	PresignUpload(
		ctx context.Context,
		key string,
		mimeType string,
		fileSize int64,
		duration time.Duration,
	) (string, error)

	// PresignDownload generates a pre-signed URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the file specified by the given key.
	Delete(ctx context.Context, key string) error

	// Stat returns the object's metadata, or ErrObjectNotFound.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// PublicURL returns the public URL of key.
	PublicURL(key string) string
}

// NewStorageService is the factory function for StorageService.
// It initializes and returns a concrete implementation based on the provided configuration.
func NewStorageService(ctx context.Context, cfg ServiceConfig) (StorageService, error) {
	// Currently, only S3 compatible implementations are supported.
	return newS3Client(ctx, cfg)
}

// JoinURL joins a base URL and an object key with exactly one slash.
func JoinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
