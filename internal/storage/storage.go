// Package storage stores uploaded report attachments in an S3 bucket
// and hands back URLs the dashboard can render directly.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectStorage is the attachment store used by the upload endpoint.
type ObjectStorage interface {
	// Put stores the object and returns a URL for it.
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// PresignGet returns a time-limited download URL for an object.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Delete removes an object. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// ObjectKey builds a collision-free key for an uploaded attachment,
// namespaced by report so bucket listings group per letter.
func ObjectKey(prefix, reportID, fileName string) string {
	base := sanitizeFileName(fileName)
	return path.Join(prefix, reportID, uuid.New().String()+"-"+base)
}

func sanitizeFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "file"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// ErrNotConfigured is returned by the disabled store used when no
// bucket is configured.
var ErrNotConfigured = fmt.Errorf("object storage not configured")

// Disabled is an ObjectStorage that rejects every call. It keeps the
// upload endpoint wired in deployments without a bucket.
type Disabled struct{}

func (Disabled) Put(context.Context, string, io.Reader, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Delete(context.Context, string) error {
	return ErrNotConfigured
}
