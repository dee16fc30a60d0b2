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

// SystemSettingsAdapter implements the SystemSettingsRepository interface.
// The table holds at most one row keyed by the fixed singleton ID.
type SystemSettingsAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSystemSettingsAdapter creates a new system settings adapter
func NewSystemSettingsAdapter(client *postgres.Client) repositories.SystemSettingsRepository {
	return &SystemSettingsAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Get retrieves the singleton settings; missing returns (nil, nil)
func (a *SystemSettingsAdapter) Get(ctx context.Context) (*entities.SystemSettings, error) {
	query, args, err := a.db.Select(
		"id", "organization_name", "support_email", "maintenance_mode",
		"updated_by", "created_at", "updated_at",
	).
		From("system_settings").
		Where(goqu.Ex{"id": entities.SystemSettingsID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	settings := &entities.SystemSettings{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&settings.ID,
		&settings.OrganizationName,
		&settings.SupportEmail,
		&settings.MaintenanceMode,
		&settings.UpdatedBy,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get system settings", err)
	}

	return settings, nil
}

// Upsert creates or replaces the singleton settings
func (a *SystemSettingsAdapter) Upsert(ctx context.Context, settings *entities.SystemSettings) error {
	settings.ID = entities.SystemSettingsID
	settings.UpdatedAt = time.Now()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = settings.UpdatedAt
	}

	record := goqu.Record{
		"id":                settings.ID,
		"organization_name": settings.OrganizationName,
		"support_email":     settings.SupportEmail,
		"maintenance_mode":  settings.MaintenanceMode,
		"updated_by":        settings.UpdatedBy,
		"created_at":        settings.CreatedAt,
		"updated_at":        settings.UpdatedAt,
	}

	query, args, err := a.db.Insert("system_settings").
		Rows(record).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"organization_name": settings.OrganizationName,
			"support_email":     settings.SupportEmail,
			"maintenance_mode":  settings.MaintenanceMode,
			"updated_by":        settings.UpdatedBy,
			"updated_at":        settings.UpdatedAt,
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert system settings", err)
	}

	return nil
}
