package repositories

import (
	"context"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
)

// UserRepository defines the interface for account data operations
type UserRepository interface {
	// Create creates a new user account
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID; missing returns (nil, nil)
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail retrieves a user by email; missing returns (nil, nil)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// Update updates a user account
	Update(ctx context.Context, user *entities.User) error

	// Deactivate soft-deactivates a user account
	Deactivate(ctx context.Context, id string) error
}

// UserProfileRepository defines the interface for profile operations
type UserProfileRepository interface {
	// Create creates a profile for a user
	Create(ctx context.Context, profile *entities.UserProfile) error

	// GetByUserID retrieves the profile of a user; missing returns (nil, nil)
	GetByUserID(ctx context.Context, userID string) (*entities.UserProfile, error)

	// Update updates a profile
	Update(ctx context.Context, profile *entities.UserProfile) error
}

// UserSettingsRepository defines the interface for per-user UI preferences
type UserSettingsRepository interface {
	// GetByUserID retrieves settings of a user; missing returns (nil, nil)
	GetByUserID(ctx context.Context, userID string) (*entities.UserSettings, error)

	// Upsert creates or replaces a user's settings
	Upsert(ctx context.Context, settings *entities.UserSettings) error
}
