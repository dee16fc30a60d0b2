package repositories

import (
	"context"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
)

// WardFilter narrows ward listings
type WardFilter struct {
	IsActive *bool
	District string
	Limit    int
}

// WardRepository defines the interface for ward data operations
type WardRepository interface {
	// Create creates a new ward
	Create(ctx context.Context, ward *entities.Ward) error

	// GetByID retrieves a ward by ID; a missing ward returns (nil, nil)
	GetByID(ctx context.Context, id string) (*entities.Ward, error)

	// List retrieves wards newest-first by creation time
	List(ctx context.Context, filter WardFilter) ([]*entities.Ward, error)

	// Update updates a ward
	Update(ctx context.Context, ward *entities.Ward) error

	// Deactivate soft-deactivates a ward, retaining its history
	Deactivate(ctx context.Context, id string) error
}

// WardRoomRepository defines the interface for ward room operations
type WardRoomRepository interface {
	// Create creates a new room under a ward
	Create(ctx context.Context, room *entities.WardRoom) error

	// GetByID retrieves a room by ID; a missing room returns (nil, nil)
	GetByID(ctx context.Context, id string) (*entities.WardRoom, error)

	// ListByWard retrieves all rooms of a ward newest-first
	ListByWard(ctx context.Context, wardID string) ([]*entities.WardRoom, error)

	// Update updates a room
	Update(ctx context.Context, room *entities.WardRoom) error

	// Delete hard-deletes a room
	Delete(ctx context.Context, id string) error
}
