package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	"github.com/civicworks/warddesk/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

var userProfileColumns = []interface{}{
	"id", "user_id", "full_name", "phone", "title", "avatar_url",
	"created_at", "updated_at",
}

// UserProfileAdapter implements the UserProfileRepository interface
type UserProfileAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserProfileAdapter creates a new user profile adapter
func NewUserProfileAdapter(client *postgres.Client) repositories.UserProfileRepository {
	return &UserProfileAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a profile for a user
func (a *UserProfileAdapter) Create(ctx context.Context, profile *entities.UserProfile) error {
	record := goqu.Record{
		"id":         profile.ID,
		"user_id":    profile.UserID,
		"full_name":  profile.FullName,
		"phone":      profile.Phone,
		"title":      profile.Title,
		"avatar_url": profile.AvatarURL,
		"created_at": profile.CreatedAt,
		"updated_at": profile.UpdatedAt,
	}

	query, args, err := a.db.Insert("user_profiles").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create user profile", err)
	}

	return nil
}

// GetByUserID retrieves the profile of a user; missing returns (nil, nil)
func (a *UserProfileAdapter) GetByUserID(ctx context.Context, userID string) (*entities.UserProfile, error) {
	query, args, err := a.db.Select(userProfileColumns...).
		From("user_profiles").
		Where(goqu.Ex{"user_id": userID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	profile := &entities.UserProfile{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Phone,
		&profile.Title,
		&profile.AvatarURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user profile", err)
	}

	return profile, nil
}

// Update updates a profile
func (a *UserProfileAdapter) Update(ctx context.Context, profile *entities.UserProfile) error {
	profile.UpdatedAt = time.Now()

	record := goqu.Record{
		"full_name":  profile.FullName,
		"phone":      profile.Phone,
		"title":      profile.Title,
		"avatar_url": profile.AvatarURL,
		"updated_at": profile.UpdatedAt,
	}

	query, args, err := a.db.Update("user_profiles").
		Set(record).
		Where(goqu.Ex{"user_id": profile.UserID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update user profile", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("profile for user %s not found", profile.UserID))
	}

	return nil
}
