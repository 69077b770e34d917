package public

import (
	"context"
	"strings"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/akeren/waitlist-foundry/pkg/theme"
)

type PublicService interface {
	// Waitlist returns the public page data for slug. The countdown is
	// computed on every call, cached or not.
	Waitlist(ctx context.Context, slug string) (*PublicWaitlistResponse, error)

	Themes() []theme.Theme
}

type publicService struct {
	logger      *log.Logger
	repository  PublicRepository
	projections *ProjectionCache
	now         func() time.Time
}

func NewPublicService(logger *log.Logger, repository PublicRepository, projections *ProjectionCache) PublicService {
	return &publicService{
		logger:      logger,
		repository:  repository,
		projections: projections,
		now:         time.Now,
	}
}

func (s *publicService) Waitlist(ctx context.Context, slug string) (*PublicWaitlistResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperrors.NewNotFoundError(MessageNotFound, nil)
	}

	if projection, ok := s.projections.Get(ctx, slug); ok {
		return Present(projection, s.now()), nil
	}

	row, err := s.repository.FindBySlug(ctx, slug)
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			logger.Error("Failed to load public waitlist", "slug", slug, "error", err)
		}
		return nil, err
	}

	projection := ToProjection(row)
	s.projections.Set(ctx, projection)

	return Present(projection, s.now()), nil
}

func (s *publicService) Themes() []theme.Theme {
	return theme.All()
}
