package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/domain/repositories"
	"github.com/civicworks/warddesk/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/civicworks/warddesk/backend/pkg/errors"
)

var userSettingsColumns = []interface{}{
	"id", "user_id", "language", "theme", "email_notifications",
	"toast_notifications", "created_at", "updated_at",
}

// UserSettingsAdapter implements the UserSettingsRepository interface
type UserSettingsAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserSettingsAdapter creates a new user settings adapter
func NewUserSettingsAdapter(client *postgres.Client) repositories.UserSettingsRepository {
	return &UserSettingsAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByUserID retrieves settings of a user; missing returns (nil, nil)
func (a *UserSettingsAdapter) GetByUserID(ctx context.Context, userID string) (*entities.UserSettings, error) {
	query, args, err := a.db.Select(userSettingsColumns...).
		From("user_settings").
		Where(goqu.Ex{"user_id": userID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	settings := &entities.UserSettings{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&settings.ID,
		&settings.UserID,
		&settings.Language,
		&settings.Theme,
		&settings.EmailNotifications,
		&settings.ToastNotifications,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user settings", err)
	}

	return settings, nil
}

// Upsert creates or replaces a user's settings keyed by user_id
func (a *UserSettingsAdapter) Upsert(ctx context.Context, settings *entities.UserSettings) error {
	settings.UpdatedAt = time.Now()

	record := goqu.Record{
		"id":                  settings.ID,
		"user_id":             settings.UserID,
		"language":            settings.Language,
		"theme":               settings.Theme,
		"email_notifications": settings.EmailNotifications,
		"toast_notifications": settings.ToastNotifications,
		"created_at":          settings.CreatedAt,
		"updated_at":          settings.UpdatedAt,
	}

	query, args, err := a.db.Insert("user_settings").
		Rows(record).
		OnConflict(goqu.DoUpdate("user_id", goqu.Record{
			"language":            settings.Language,
			"theme":               settings.Theme,
			"email_notifications": settings.EmailNotifications,
			"toast_notifications": settings.ToastNotifications,
			"updated_at":          settings.UpdatedAt,
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert user settings", err)
	}

	return nil
}
