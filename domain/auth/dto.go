package auth

import (
	"time"

	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/pkg/constants"
)

type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email,max=255"`
	Password string  `json:"password" binding:"required,min=6,max=72"`
	Name     *string `json:"name" binding:"omitempty,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=72"`
}

type UserResponse struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

type LoginResponse struct {
	Token   string       `json:"token"`
	Expires string       `json:"expires"`
	User    UserResponse `json:"user"`

	expiresAt time.Time
}

type SessionResponse struct {
	User    UserResponse `json:"user"`
	Expires string       `json:"expires"`
}

func ToUserResponse(user *models.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	return UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
}

func formatExpiry(t time.Time) string {
	return t.UTC().Format(constants.RFC3339DateTimeFormat)
}
