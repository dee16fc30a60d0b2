package repositories

import (
	"context"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
)

// SystemSettingsRepository manages the singleton system settings row
type SystemSettingsRepository interface {
	// Get retrieves the singleton settings; missing returns (nil, nil)
	Get(ctx context.Context) (*entities.SystemSettings, error)

	// Upsert creates or replaces the singleton settings
	Upsert(ctx context.Context, settings *entities.SystemSettings) error
}
