// Package storage persists uploaded logo files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	fileNameAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	// DefaultURLPrefix is where locally stored logos are served.
	DefaultURLPrefix = "/uploads"
)

var ErrInvalidKey = errors.New("storage: invalid object key")

// ObjectStore is the backend behind logo uploads.
type ObjectStore interface {
	// Put stores body under key and returns the URL the file is served from.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Name() string
}

// NewFileName returns "{unix-millis}-{random}.{ext}".
func NewFileName(ext string) (string, error) {
	id, err := gonanoid.Generate(fileNameAlphabet, 10)
	if err != nil {
		return "", fmt.Errorf("generate file name: %w", err)
	}

	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), id), nil
	}
	return fmt.Sprintf("%d-%s.%s", time.Now().UnixMilli(), id, ext), nil
}

// Key joins a prefix and a file name into a clean object key.
func Key(prefix, name string) (string, error) {
	key := path.Clean(path.Join(prefix, name))
	if err := validateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

func validateKey(key string) error {
	if key == "" || key == "." || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
