package repositories

import (
	"context"

	"github.com/civicworks/warddesk/backend/internal/domain/entities"
)

// IncidentFilter narrows incident listings
type IncidentFilter struct {
	WardID   string
	DeviceID string
	Status   entities.IncidentStatus
	Limit    int
}

// IncidentRepository defines the interface for incident operations
type IncidentRepository interface {
	// Create creates a new incident
	Create(ctx context.Context, incident *entities.Incident) error

	// GetByID retrieves an incident by ID; missing returns (nil, nil)
	GetByID(ctx context.Context, id string) (*entities.Incident, error)

	// List retrieves incidents newest-first by creation time
	List(ctx context.Context, filter IncidentFilter) ([]*entities.Incident, error)

	// Update updates an incident
	Update(ctx context.Context, incident *entities.Incident) error

	// ClearNewUpdates clears the notification flag on all of a scope's
	// incidents last touched by the given role
	ClearNewUpdates(ctx context.Context, wardID string, updatedBy entities.ActorRole) error
}
