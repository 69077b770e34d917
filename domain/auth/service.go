package auth

import (
	"context"
	"strings"
	"time"

	"github.com/akeren/waitlist-foundry/internal/identity"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/models"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/akeren/waitlist-foundry/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	// Register creates an account with a bcrypt-hashed password.
	Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error)

	// Login checks the credentials and issues a session token.
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)

	// Session returns the user behind caller, or nil when the account is gone.
	Session(ctx context.Context, caller *identity.Identity) (*SessionResponse, error)
}

type authService struct {
	logger     *log.Logger
	repository UserRepository
	tokens     *token.Issuer
	cost       int
}

func NewAuthService(logger *log.Logger, repository UserRepository, tokens *token.Issuer) AuthService {
	return &authService{
		logger:     logger,
		repository: repository,
		tokens:     tokens,
		cost:       bcrypt.DefaultCost,
	}
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		return nil, apperrors.NewInvalidRequestError(MessageInvalidPayload, nil)
	}

	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.NewInvalidRequestError(MessageInvalidPayload, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		return nil, apperrors.NewInternalServerError("unable to hash password", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     trimmedOrNil(req.Name),
	}

	created, err := s.repository.CreateUser(ctx, user)
	if err != nil {
		logger.Warn("Failed to register user", "error", err)
		return nil, err
	}

	logger.Info("User registered", "user_id", created.ID)
	response := ToUserResponse(created)
	return &response, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		return nil, apperrors.NewInvalidRequestError(MessageInvalidPayload, nil)
	}

	user, err := s.repository.FindUserByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			// Burn the same time as a real comparison.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return nil, apperrors.NewUnauthorizedError(MessageInvalidCredentials, nil)
		}
		logger.Error("Failed to look up user", "error", err)
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Info("Login rejected", "user_id", user.ID)
		return nil, apperrors.NewUnauthorizedError(MessageInvalidCredentials, nil)
	}

	signed, expiresAt, err := s.tokens.Sign(user.ID, user.Email)
	if err != nil {
		logger.Error("Failed to sign session token", "error", err)
		return nil, apperrors.NewInternalServerError("unable to sign token", err)
	}

	logger.Info("User logged in", "user_id", user.ID)

	return &LoginResponse{
		Token:     signed,
		Expires:   formatExpiry(expiresAt),
		User:      ToUserResponse(user),
		expiresAt: expiresAt,
	}, nil
}

func (s *authService) Session(ctx context.Context, caller *identity.Identity) (*SessionResponse, error) {
	if caller == nil {
		return nil, nil
	}

	user, err := s.repository.FindUserByID(ctx, caller.UserID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &SessionResponse{
		User:    ToUserResponse(user),
		Expires: formatExpiry(caller.ExpiresAt),
	}, nil
}

// ExpiresIn is how long the issued token stays valid from now.
func (r *LoginResponse) ExpiresIn(now time.Time) time.Duration {
	if r == nil || r.expiresAt.IsZero() {
		return 0
	}
	return r.expiresAt.Sub(now)
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("waitlist-foundry"), bcrypt.MinCost)

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
