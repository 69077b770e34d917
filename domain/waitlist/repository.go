package waitlist

import (
	"context"
	"errors"

	"github.com/akeren/waitlist-foundry/internal/models"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"gorm.io/gorm"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

const subscriberCountColumn = "(SELECT COUNT(*) FROM subscribers WHERE subscribers.waitlist_id = waitlists.id) AS subscriber_count"

type WaitlistRepository interface {
	// ListByOwner returns the owner's waitlists, newest first, with subscriber counts.
	ListByOwner(ctx context.Context, ownerID string) ([]models.WaitlistWithCount, error)
	// FindOwned returns a waitlist only when ownerID owns it.
	FindOwned(ctx context.Context, id, ownerID string) (*models.WaitlistWithCount, error)
	// SlugTaken reports whether another waitlist than excludeID holds slug.
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	// Create inserts a waitlist. A slug collision is a conflict.
	Create(ctx context.Context, waitlist *models.Waitlist) (*models.Waitlist, error)
	// Update writes the given columns of an owned waitlist.
	Update(ctx context.Context, id, ownerID string, updates map[string]any) error
	// Delete removes an owned waitlist and its subscribers.
	Delete(ctx context.Context, id, ownerID string) error
	// ListSubscribers returns subscribers oldest first.
	ListSubscribers(ctx context.Context, waitlistID string) ([]models.Subscriber, error)
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (r *waitlistRepository) withCount(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Waitlist{}).
		Select("waitlists.*, " + subscriberCountColumn)
}

func (r *waitlistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.WaitlistWithCount, error) {
	rows := make([]models.WaitlistWithCount, 0)

	if err := r.withCount(ctx).
		Where("waitlists.user_id = ?", ownerID).
		Order("waitlists.created_at DESC").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.NewDatabaseError("unable to fetch waitlists", err)
	}

	return rows, nil
}

func (r *waitlistRepository) FindOwned(ctx context.Context, id, ownerID string) (*models.WaitlistWithCount, error) {
	var rows []models.WaitlistWithCount

	if err := r.withCount(ctx).
		Where("waitlists.id = ? AND waitlists.user_id = ?", id, ownerID).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, apperrors.NewDatabaseError("failed to fetch waitlist", err)
	}

	if len(rows) == 0 {
		return nil, apperrors.NewNotFoundError(MessageNotFound, nil)
	}

	return &rows[0], nil
}

func (r *waitlistRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var count int64

	q := r.db.WithContext(ctx).Model(&models.Waitlist{}).Where("slug = ?", slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	if err := q.Count(&count).Error; err != nil {
		return false, apperrors.NewDatabaseError("unable to check slug", err)
	}

	return count > 0, nil
}

func (r *waitlistRepository) Create(ctx context.Context, waitlist *models.Waitlist) (*models.Waitlist, error) {
	if err := r.db.WithContext(ctx).Create(waitlist).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.NewConflictError(MessageSlugTaken, err)
		}
		return nil, apperrors.NewDatabaseError("unable to create waitlist", err)
	}

	return waitlist, nil
}

func (r *waitlistRepository) Update(ctx context.Context, id, ownerID string, updates map[string]any) error {
	if len(updates) == 0 {
		return apperrors.NewInvalidRequestError(MessageInvalidPayload, nil)
	}

	result := r.db.WithContext(ctx).
		Model(&models.Waitlist{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(updates)

	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return apperrors.NewConflictError(MessageSlugTaken, result.Error)
		}
		return apperrors.NewDatabaseError("unable to update waitlist", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError(MessageNotFound, nil)
	}

	return nil
}

func (r *waitlistRepository) Delete(ctx context.Context, id, ownerID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&models.Waitlist{}).Where("id = ? AND user_id = ?", id, ownerID).Count(&owned).Error; err != nil {
			return apperrors.NewDatabaseError("failed to fetch waitlist", err)
		}
		if owned == 0 {
			return apperrors.NewNotFoundError(MessageNotFound, nil)
		}

		// Subscribers go first so engines without the cascading foreign key stay clean.
		if err := tx.Where("waitlist_id = ?", id).Delete(&models.Subscriber{}).Error; err != nil {
			return apperrors.NewDatabaseError("unable to delete subscribers", err)
		}

		if err := tx.Where("id = ?", id).Delete(&models.Waitlist{}).Error; err != nil {
			return apperrors.NewDatabaseError("unable to delete waitlist", err)
		}

		return nil
	})
}

func (r *waitlistRepository) ListSubscribers(ctx context.Context, waitlistID string) ([]models.Subscriber, error) {
	subscribers := make([]models.Subscriber, 0)

	if err := r.db.WithContext(ctx).
		Where("waitlist_id = ?", waitlistID).
		Order("created_at ASC").
		Order("position ASC").
		Find(&subscribers).Error; err != nil {
		return nil, apperrors.NewDatabaseError("unable to fetch subscribers", err)
	}

	return subscribers, nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err)
}
