package repositories

import (
	"context"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
)

// WardUserFilter narrows ward membership listings
type WardUserFilter struct {
	WardID   string
	RoomID   *string
	Role     entities.WardUserRole
	IsActive *bool
	Limit    int
}

// WardUserRepository defines the interface for ward membership operations
type WardUserRepository interface {
	// Create creates a new membership record
	Create(ctx context.Context, member *entities.WardUser) error

	// GetByID retrieves a membership by ID; missing returns (nil, nil)
	GetByID(ctx context.Context, id string) (*entities.WardUser, error)

	// List retrieves memberships newest-first by creation time
	List(ctx context.Context, filter WardUserFilter) ([]*entities.WardUser, error)

	// CountByWard returns the number of active memberships in a ward
	CountByWard(ctx context.Context, wardID string) (int, error)

	// Update updates a membership record
	Update(ctx context.Context, member *entities.WardUser) error

	// Deactivate soft-deactivates a membership
	Deactivate(ctx context.Context, id string) error
}
