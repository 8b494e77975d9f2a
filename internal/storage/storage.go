package storage

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Service archives uploaded resumes in remote object storage.
type Service interface {
	PutObject(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// ResumeKey builds a fresh object key for a user's resume upload.
func ResumeKey(prefix, userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	name := uuid.NewString() + ext
	return path.Join(strings.Trim(prefix, "/"), userID, name)
}
