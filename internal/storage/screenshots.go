// package storage persists uploaded media on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/akulikov/review-request-service/internal/service"
	"github.com/google/uuid"
)

// FileStore writes screenshot images under a media directory and hands back
// the path relative to it. File names are random so uploads never collide.
type FileStore struct {
	dir string
}

var _ service.ScreenshotIngester = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("can't create media directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Ingest(_ context.Context, image []byte) (string, error) {
	ext, err := imageExtension(image)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + ext

	if err := os.WriteFile(filepath.Join(s.dir, name), image, 0o644); err != nil {
		return "", fmt.Errorf("can't write image: %w", err)
	}

	return name, nil
}

func imageExtension(image []byte) (string, error) {
	switch http.DetectContentType(image) {
	case "image/png":
		return ".png", nil
	case "image/jpeg":
		return ".jpg", nil
	case "image/gif":
		return ".gif", nil
	default:
		return "", errors.New("unsupported image format")
	}
}
