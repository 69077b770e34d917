package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/storage"
	"github.com/akeren/waitlist-foundry/pkg/utils"
)

const (
	StorageBackendLocal = "local"
	StorageBackendS3    = "s3"
)

type StorageConfig struct {
	Backend    string
	UploadsDir string
	URLPrefix  string
	S3         storage.S3Config
}

func NewStorageConfig() *StorageConfig {
	return &StorageConfig{
		Backend:    strings.ToLower(utils.GetEnvTrimmedOrDefault("LOGO_STORAGE", StorageBackendLocal)),
		UploadsDir: utils.GetEnvTrimmedOrDefault("UPLOADS_DIR", "public/uploads"),
		URLPrefix:  storage.DefaultURLPrefix,
		S3: storage.S3Config{
			Bucket:          utils.GetEnvTrimmed("S3_BUCKET"),
			Region:          utils.GetEnvTrimmedOrDefault("S3_REGION", "us-east-1"),
			Endpoint:        utils.GetEnvTrimmed("S3_ENDPOINT"),
			AccessKeyID:     utils.GetEnvTrimmed("S3_ACCESS_KEY_ID"),
			SecretAccessKey: utils.GetEnvTrimmed("S3_SECRET_ACCESS_KEY"),
			PublicBaseURL:   utils.GetEnvTrimmed("S3_PUBLIC_BASE_URL"),
		},
	}
}

func (sc *StorageConfig) NewObjectStore(ctx context.Context, logger *log.Logger) (storage.ObjectStore, error) {
	switch sc.Backend {
	case StorageBackendS3:
		store, err := storage.NewS3Store(ctx, sc.S3)
		if err != nil {
			logger.Error("Failed to configure S3 logo storage", "error", err)
			return nil, err
		}
		logger.Info("Logo storage configured", "backend", StorageBackendS3, "bucket", sc.S3.Bucket, "endpoint", sc.S3.Endpoint)
		return store, nil

	case StorageBackendLocal, "":
		store, err := storage.NewLocalStore(sc.UploadsDir, sc.URLPrefix)
		if err != nil {
			logger.Error("Failed to configure local logo storage", "error", err)
			return nil, err
		}
		logger.Info("Logo storage configured", "backend", StorageBackendLocal, "dir", store.Dir())
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported LOGO_STORAGE %q (expected %q or %q)", sc.Backend, StorageBackendLocal, StorageBackendS3)
	}
}
