package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/providers"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

// UserService handles profiles, per-user preferences and the singleton
// system settings document
type UserService struct {
	profileRepo  repositories.UserProfileRepository
	settingsRepo repositories.UserSettingsRepository
	systemRepo   repositories.SystemSettingsRepository
	blobs        providers.BlobStore
}

// NewUserService creates a new user service
func NewUserService(
	profileRepo repositories.UserProfileRepository,
	settingsRepo repositories.UserSettingsRepository,
	systemRepo repositories.SystemSettingsRepository,
	blobs providers.BlobStore,
) *UserService {
	return &UserService{
		profileRepo:  profileRepo,
		settingsRepo: settingsRepo,
		systemRepo:   systemRepo,
		blobs:        blobs,
	}
}

// GetProfile retrieves a user's profile
func (s *UserService) GetProfile(ctx context.Context, userID string) (*entities.UserProfile, error) {
	return s.profileRepo.GetByUserID(ctx, userID)
}

// UpdateProfile updates a user's profile fields
func (s *UserService) UpdateProfile(ctx context.Context, profile *entities.UserProfile) error {
	if profile.FullName == "" {
		return apperrors.NewValidationError("full name is required")
	}
	return s.profileRepo.Update(ctx, profile)
}

// UploadAvatar stores a new avatar image and records its URL on the profile
func (s *UserService) UploadAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader) (string, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("profile for user %s not found", userID))
	}

	path := fmt.Sprintf("avatars/images/%d_%s", time.Now().UnixMilli(), filename)
	url, err := s.blobs.Upload(ctx, path, contentType, body)
	if err != nil {
		return "", apperrors.NewExternalError("failed to upload avatar", err)
	}

	profile.AvatarURL = url
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return "", err
	}
	return url, nil
}

// GetSettings retrieves a user's preferences, falling back to defaults when
// the user has never saved any
func (s *UserService) GetSettings(ctx context.Context, userID string) (*entities.UserSettings, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return defaultSettings(userID), nil
	}
	return settings, nil
}

// SaveSettings creates or replaces a user's preferences
func (s *UserService) SaveSettings(ctx context.Context, settings *entities.UserSettings) error {
	if settings.UserID == "" {
		return apperrors.NewValidationError("user id is required")
	}
	if settings.ID == "" {
		settings.ID = uuid.New().String()
	}
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = time.Now()
	}
	return s.settingsRepo.Upsert(ctx, settings)
}

// GetSystemSettings retrieves the singleton system configuration, falling
// back to defaults when it has never been saved
func (s *UserService) GetSystemSettings(ctx context.Context) (*entities.SystemSettings, error) {
	settings, err := s.systemRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return &entities.SystemSettings{
			ID:               entities.SystemSettingsID,
			OrganizationName: "Municipal IT Center",
		}, nil
	}
	return settings, nil
}

// SaveSystemSettings replaces the singleton system configuration
func (s *UserService) SaveSystemSettings(ctx context.Context, settings *entities.SystemSettings, updatedBy string) error {
	if settings.OrganizationName == "" {
		return apperrors.NewValidationError("organization name is required")
	}
	settings.UpdatedBy = updatedBy
	return s.systemRepo.Upsert(ctx, settings)
}

func defaultSettings(userID string) *entities.UserSettings {
	return &entities.UserSettings{
		UserID:             userID,
		Language:           "en",
		Theme:              "light",
		EmailNotifications: true,
		ToastNotifications: true,
	}
}
