package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements Store against a directory on disk. It is used for
// tests and offline ingestion where no real S3 bucket is configured; URLs
// it returns use a "file://" scheme rather than "s3://" or HTTPS, and
// ToHTTPS/Canonicalize are identity functions on file:// URLs.
type LocalStore struct {
	baseDir string
}

// NewLocalStore returns a LocalStore rooted at baseDir, creating it if
// necessary.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("objectstore: creating base dir: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Upload copies localPath into the store under key and returns a file://
// URL pointing at the copy.
func (l *LocalStore) Upload(ctx context.Context, localPath, key string) (string, error) {
	dst := filepath.Join(l.baseDir, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("objectstore: creating key dir: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("objectstore: opening %s: %w", localPath, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("objectstore: creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("objectstore: copying to %s: %w", dst, err)
	}
	return "file://" + dst, nil
}

// Canonicalize is the identity function for file:// URLs.
func (l *LocalStore) Canonicalize(url string) string {
	if strings.HasPrefix(url, "file://") {
		return url
	}
	return canonicalize(url)
}

// ToHTTPS is the identity function for file:// URLs; there is no HTTPS form
// for a local path.
func (l *LocalStore) ToHTTPS(url string) string {
	if strings.HasPrefix(url, "file://") {
		return url
	}
	return toHTTPS(url)
}
