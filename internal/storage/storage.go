package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Dan9191/recipe-service/internal/config"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when deleting a key that does not exist
var ErrNotFound = errors.New("object not found")

// ImageStore stores uploaded images by key
type ImageStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	URL(key string) string
}

// New builds the image store selected by cfg.StorageBackend
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (ImageStore, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		log.Infof("Storing images under %s", cfg.MediaRoot)
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	case config.StorageS3:
		log.Infof("Storing images in bucket %s", cfg.S3Bucket)
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
