package repositories

import (
	"context"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
)

// DeviceRequestFilter narrows request listings
type DeviceRequestFilter struct {
	WardID string
	Status entities.DeviceRequestStatus
	Limit  int
}

// DeviceRequestRepository defines the interface for device request operations
type DeviceRequestRepository interface {
	// Create creates a new device request
	Create(ctx context.Context, request *entities.DeviceRequest) error

	// GetByID retrieves a request by ID; missing returns (nil, nil)
	GetByID(ctx context.Context, id string) (*entities.DeviceRequest, error)

	// List retrieves requests newest-first by creation time
	List(ctx context.Context, filter DeviceRequestFilter) ([]*entities.DeviceRequest, error)

	// Update updates a request
	Update(ctx context.Context, request *entities.DeviceRequest) error

	// ClearNewUpdates clears the notification flag on all of a scope's
	// requests last touched by the given role
	ClearNewUpdates(ctx context.Context, wardID string, updatedBy entities.ActorRole) error

	// Delete hard-deletes a request
	Delete(ctx context.Context, id string) error
}
