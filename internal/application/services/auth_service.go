package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
	"github.com/civicworks/warddesk/backend/pkg/jwt"
	"github.com/civicworks/warddesk/backend/pkg/password"
)

// Session is what a successful login or registration hands back
type Session struct {
	User         *entities.User        `json:"user"`
	Profile      *entities.UserProfile `json:"profile,omitempty"`
	AccessToken  string                `json:"access_token"`
	RefreshToken string                `json:"refresh_token"`
	ExpiresIn    int64                 `json:"expires_in"`
}

// AuthService handles account registration and session issuance
type AuthService struct {
	userRepo    repositories.UserRepository
	profileRepo repositories.UserProfileRepository
	tokens      *jwt.Manager
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	profileRepo repositories.UserProfileRepository,
	tokens *jwt.Manager,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		tokens:      tokens,
	}
}

// Register creates an account with a hashed password and opens a session
func (s *AuthService) Register(ctx context.Context, email, plainPassword, fullName string, role entities.UserRole, wardID *string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("a valid email is required")
	}
	if len(plainPassword) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters")
	}
	if role == entities.UserRoleWard && wardID == nil {
		return nil, apperrors.NewValidationError("ward accounts need a ward id")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflictError(fmt.Sprintf("account %s already exists", email))
	}

	hash, err := password.Hash(plainPassword, password.DefaultParams())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	now := time.Now()
	user := &entities.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		WardID:       wardID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	profile := &entities.UserProfile{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		FullName:  fullName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("account registered")
	return s.openSession(user, profile)
}

// Login verifies credentials and opens a session. Invalid email and invalid
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewUnauthorizedError("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorizedError("account is deactivated")
	}

	ok, err := password.Verify(plainPassword, user.PasswordHash)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to verify password", err)
	}
	if !ok {
		return nil, apperrors.NewUnauthorizedError("invalid credentials")
	}

	profile, err := s.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Msg("login")
	return s.openSession(user, profile)
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid refresh token")
	}
	if claims.TokenType != "refresh" {
		return nil, apperrors.NewUnauthorizedError("not a refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperrors.NewUnauthorizedError("account is no longer active")
	}

	profile, err := s.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return s.openSession(user, profile)
}

// CurrentUser resolves the account behind a validated set of claims
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*entities.User, *entities.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, apperrors.NewUnauthorizedError("account not found")
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

// ChangePassword replaces the password after verifying the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NewUnauthorizedError("account not found")
	}

	ok, err := password.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return apperrors.NewInternalError("failed to verify password", err)
	}
	if !ok {
		return apperrors.NewUnauthorizedError("current password is incorrect")
	}

	hash, err := password.Hash(newPassword, password.DefaultParams())
	if err != nil {
		return apperrors.NewInternalError("failed to hash password", err)
	}

	user.PasswordHash = hash
	return s.userRepo.Update(ctx, user)
}

// RequestPasswordReset acknowledges a reset request. Whether the email exists
// is never revealed; the reset token is logged for the operator to hand over
// until a mail channel is wired up.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	pair, err := s.tokens.GenerateTokenPair(user.ID, user.Email, string(user.Role), derefWardID(user.WardID))
	if err != nil {
		return apperrors.NewInternalError("failed to issue reset token", err)
	}

	log.Info().Str("user_id", user.ID).Str("reset_token", pair.AccessToken).Msg("password reset requested")
	return nil
}

func (s *AuthService) openSession(user *entities.User, profile *entities.UserProfile) (*Session, error) {
	pair, err := s.tokens.GenerateTokenPair(user.ID, user.Email, string(user.Role), derefWardID(user.WardID))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue tokens", err)
	}

	return &Session{
		User:         user,
		Profile:      profile,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

func derefWardID(wardID *string) string {
	if wardID == nil {
		return ""
	}
	return *wardID
}
