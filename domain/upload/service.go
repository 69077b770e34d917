package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/constants"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/akeren/waitlist-foundry/pkg/storage"
	"github.com/gabriel-vasile/mimetype"
)

// Content types a client may declare for a logo.
var declaredTypes = map[string]struct{}{
	"image/png":     {},
	"image/jpeg":    {},
	"image/jpg":     {},
	"image/gif":     {},
	"image/webp":    {},
	"image/svg+xml": {},
}

// Types the file content itself must match.
var sniffedTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"image/svg+xml",
}

type UploadService interface {
	// UploadLogo checks the file and stores it under a fresh name.
	UploadLogo(ctx context.Context, file *LogoFile) (*UploadResponse, error)
}

type uploadService struct {
	logger  *log.Logger
	store   storage.ObjectStore
	maxSize int64
	metrics *Metrics
}

func NewUploadService(logger *log.Logger, store storage.ObjectStore, metrics *Metrics) UploadService {
	return &uploadService{
		logger:  logger,
		store:   store,
		maxSize: constants.MaxLogoSizeBytes,
		metrics: metrics,
	}
}

func (s *uploadService) UploadLogo(ctx context.Context, file *LogoFile) (*UploadResponse, error) {
	response, size, err := s.upload(ctx, file)
	s.metrics.observe(size, err)
	return response, err
}

func (s *uploadService) upload(ctx context.Context, file *LogoFile) (*UploadResponse, int64, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if file == nil || file.Body == nil {
		return nil, 0, apperrors.NewInvalidRequestError(MessageNoFile, nil)
	}

	if !declaredTypeAllowed(file.DeclaredType) {
		logger.Info("Logo rejected by declared type", "declared_type", file.DeclaredType)
		return nil, 0, apperrors.NewInvalidRequestError(MessageTypeNotAllowed, nil)
	}

	if file.Size > s.maxSize {
		return nil, 0, apperrors.NewInvalidRequestError(MessageTooLarge, nil)
	}

	// The declared size comes from the client; never read past the limit.
	data, err := io.ReadAll(io.LimitReader(file.Body, s.maxSize+1))
	if err != nil {
		return nil, 0, apperrors.NewInvalidRequestError(MessageNoFile, err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, 0, apperrors.NewInvalidRequestError(MessageTooLarge, nil)
	}
	if len(data) == 0 {
		return nil, 0, apperrors.NewInvalidRequestError(MessageNoFile, nil)
	}

	detected := mimetype.Detect(data)
	if !sniffedTypeAllowed(detected) {
		logger.Info("Logo rejected by content",
			"declared_type", file.DeclaredType,
			"detected_type", detected.String(),
		)
		return nil, 0, apperrors.NewInvalidRequestError(MessageTypeNotAllowed, nil)
	}

	name, err := storage.NewFileName(detected.Extension())
	if err != nil {
		return nil, 0, apperrors.NewInternalServerError(MessageUploadFailed, err)
	}
	key, err := storage.Key(constants.LogoKeyPrefix, name)
	if err != nil {
		return nil, 0, apperrors.NewInternalServerError(MessageUploadFailed, err)
	}

	url, err := s.store.Put(ctx, key, detected.String(), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.Error("Failed to store logo", "backend", s.store.Name(), "key", key, "error", err)
		return nil, 0, apperrors.NewStorageError(MessageUploadFailed, fmt.Errorf("put %s: %w", key, err))
	}

	logger.Info("Logo stored", "backend", s.store.Name(), "key", key, "size", len(data))

	return &UploadResponse{URL: url}, int64(len(data)), nil
}

func declaredTypeAllowed(contentType string) bool {
	base := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	_, ok := declaredTypes[base]
	return ok
}

func sniffedTypeAllowed(detected *mimetype.MIME) bool {
	for _, allowed := range sniffedTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}
