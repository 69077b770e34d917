package subscription

import (
	"context"
	"errors"
	"strings"

	"github.com/akeren/waitlist-foundry/internal/models"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=subscription

// Enrollment is a stored subscriber together with the slug of its waitlist.
type Enrollment struct {
	Subscriber   *models.Subscriber
	WaitlistSlug string
}

type SubscriptionRepository interface {
	// Enroll assigns the next position of the waitlist and stores the subscriber.
	// Concurrent enrollments on one waitlist are serialized on the waitlist row.
	Enroll(ctx context.Context, subscriber *models.Subscriber) (*Enrollment, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Enroll(ctx context.Context, subscriber *models.Subscriber) (*Enrollment, error) {
	var waitlist models.Waitlist

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "slug").
			Where("id = ?", subscriber.WaitlistID).
			Take(&waitlist).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFoundError(MessageWaitlistNotFound, err)
			}
			return apperrors.NewDatabaseError("failed to lock waitlist", err)
		}

		var existing int64
		if err := tx.Model(&models.Subscriber{}).
			Where("waitlist_id = ? AND email = ?", subscriber.WaitlistID, subscriber.Email).
			Count(&existing).Error; err != nil {
			return apperrors.NewDatabaseError("failed to check subscriber", err)
		}
		if existing > 0 {
			return apperrors.NewConflictError(MessageAlreadySubscribed, nil)
		}

		var count int64
		if err := tx.Model(&models.Subscriber{}).
			Where("waitlist_id = ?", subscriber.WaitlistID).
			Count(&count).Error; err != nil {
			return apperrors.NewDatabaseError("failed to count subscribers", err)
		}

		subscriber.Position = int(count) + 1

		if err := tx.Create(subscriber).Error; err != nil {
			if isEmailCollision(err) {
				return apperrors.NewConflictError(MessageAlreadySubscribed, err)
			}
			return apperrors.NewDatabaseError("failed to create subscriber", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Enrollment{Subscriber: subscriber, WaitlistSlug: waitlist.Slug}, nil
}

// isEmailCollision reports a unique violation that is not the position index.
// A position collision means the row lock did not hold and stays a database error.
func isEmailCollision(err error) bool {
	if !errors.Is(err, gorm.ErrDuplicatedKey) && !apperrors.IsDuplicateKeyError(err) {
		return false
	}
	return !strings.Contains(strings.ToLower(err.Error()), "position")
}
