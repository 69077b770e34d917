package public

import (
	"context"

	"github.com/akeren/waitlist-foundry/internal/models"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"gorm.io/gorm"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=public

const subscriberCountColumn = "(SELECT COUNT(*) FROM subscribers WHERE subscribers.waitlist_id = waitlists.id) AS subscriber_count"

type PublicRepository interface {
	// FindBySlug returns the waitlist published under slug with its subscriber count.
	FindBySlug(ctx context.Context, slug string) (*models.WaitlistWithCount, error)
}

type publicRepository struct {
	db *gorm.DB
}

func NewPublicRepository(db *gorm.DB) PublicRepository {
	return &publicRepository{db: db}
}

func (r *publicRepository) FindBySlug(ctx context.Context, slug string) (*models.WaitlistWithCount, error) {
	var rows []models.WaitlistWithCount

	if err := r.db.WithContext(ctx).
		Model(&models.Waitlist{}).
		Select("waitlists.*, "+subscriberCountColumn).
		Where("waitlists.slug = ?", slug).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, apperrors.NewDatabaseError("failed to fetch public waitlist", err)
	}

	if len(rows) == 0 {
		return nil, apperrors.NewNotFoundError(MessageNotFound, nil)
	}

	return &rows[0], nil
}
