package repositories

import (
	"context"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
)

// DeviceFilter narrows device listings. Zero values mean "no constraint".
type DeviceFilter struct {
	WardID     string
	Status     entities.DeviceStatus
	Category   string
	Unassigned bool
	Limit      int
}

// DeviceRepository defines the interface for device data operations
type DeviceRepository interface {
	// Create creates a new device
	Create(ctx context.Context, device *entities.Device) error

	// GetByID retrieves a device by ID; a missing device returns (nil, nil)
	GetByID(ctx context.Context, id string) (*entities.Device, error)

	// List retrieves devices newest-first by creation time
	List(ctx context.Context, filter DeviceFilter) ([]*entities.Device, error)

	// CountByWard returns the number of devices owned by a ward
	CountByWard(ctx context.Context, wardID string) (int, error)

	// Update updates a device
	Update(ctx context.Context, device *entities.Device) error

	// Delete hard-deletes a device
	Delete(ctx context.Context, id string) error
}
