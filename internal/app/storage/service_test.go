package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/students/1/a.png", JoinURL("https://cdn.example.com/", "/students/1/a.png"))
	assert.Equal(t, "https://cdn.example.com/k", JoinURL("https://cdn.example.com", "k"))
}

func TestS3Client_PresignAndPublicURL(t *testing.T) {
	svc, err := NewStorageService(context.Background(), ServiceConfig{
		S3BucketName:      "photos",
		S3Endpoint:        "http://localhost:9000",
		S3AccessKeyID:     "key",
		S3SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/photos/students/1/a.png", svc.PublicURL("students/1/a.png"))

	url, err := svc.PresignUpload(context.Background(), "students/1/a.png", "image/png", 1024, time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/photos/students/1/a.png?"), url)
	assert.Contains(t, url, "X-Amz-Signature=")
}
