package auth

import (
	"context"
	"errors"

	"github.com/akeren/waitlist-foundry/internal/models"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"gorm.io/gorm"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=auth

type UserRepository interface {
	// CreateUser persists a new user. A taken email is a conflict.
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	// FindUserByEmail looks a user up by its normalized email.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.NewConflictError(MessageEmailTaken, err)
		}
		return nil, apperrors.NewDatabaseError("unable to create user", err)
	}
	return user, nil
}

func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user not found", err)
		}
		return nil, apperrors.NewDatabaseError("failed to fetch user", err)
	}
	return &user, nil
}

func (r *userRepository) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user not found", err)
		}
		return nil, apperrors.NewDatabaseError("failed to fetch user", err)
	}
	return &user, nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err)
}
