package subscription

import (
	"context"
	"strings"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/models"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/google/uuid"
)

// ProjectionInvalidator drops cached public pages after a write.
type ProjectionInvalidator interface {
	Invalidate(ctx context.Context, slugs ...string)
}

type SubscriptionService interface {
	// Subscribe records a new subscriber and returns its 1-based position.
	Subscribe(ctx context.Context, req *SubscribeRequest) (*SubscribeResponse, error)
}

type subscriptionService struct {
	logger      *log.Logger
	repository  SubscriptionRepository
	invalidator ProjectionInvalidator
	metrics     *Metrics
}

func NewSubscriptionService(
	logger *log.Logger,
	repository SubscriptionRepository,
	invalidator ProjectionInvalidator,
	metrics *Metrics,
) SubscriptionService {
	return &subscriptionService{
		logger:      logger,
		repository:  repository,
		invalidator: invalidator,
		metrics:     metrics,
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, req *SubscribeRequest) (*SubscribeResponse, error) {
	response, err := s.subscribe(ctx, req)
	s.metrics.observe(err)
	return response, err
}

func (s *subscriptionService) subscribe(ctx context.Context, req *SubscribeRequest) (*SubscribeResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		return nil, apperrors.NewInvalidRequestError(MessageFieldsMissing, nil)
	}

	waitlistID := strings.TrimSpace(req.WaitlistID)
	email := strings.TrimSpace(req.Email)
	if waitlistID == "" || email == "" {
		return nil, apperrors.NewInvalidRequestError(MessageFieldsMissing, nil)
	}

	parsedID, err := uuid.Parse(waitlistID)
	if err != nil {
		return nil, apperrors.NewNotFoundError(MessageWaitlistNotFound, err)
	}

	subscriber := &models.Subscriber{
		WaitlistID: parsedID.String(),
		Email:      email,
		Name:       optionalText(req.Name),
		Company:    optionalText(req.Company),
	}
	if len(req.CustomData) > 0 {
		subscriber.CustomData = req.CustomData
	}

	enrollment, err := s.repository.Enroll(ctx, subscriber)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeDatabaseError) {
			logger.Error("Failed to record subscription", "waitlist_id", subscriber.WaitlistID, "error", err)
		} else {
			logger.Info("Subscription rejected", "waitlist_id", subscriber.WaitlistID, "error", err)
		}
		return nil, err
	}

	logger.Info("Subscriber recorded",
		"waitlist_id", subscriber.WaitlistID,
		"position", enrollment.Subscriber.Position,
	)

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, enrollment.WaitlistSlug)
	}

	return &SubscribeResponse{
		Message:  MessageSubscribed,
		Position: enrollment.Subscriber.Position,
	}, nil
}

func optionalText(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
