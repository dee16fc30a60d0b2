package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// UpdateEventType represents the kind of entity an update event refers to
type UpdateEventType string

const (
	UpdateEventDeviceRequest UpdateEventType = "device_request_update"
	UpdateEventIncident      UpdateEventType = "incident_update"
	UpdateEventDevice        UpdateEventType = "device_update"

	// UpdateEventViewed marks a viewer clearing its own unread flags; unlike
	// the entity events it must reach the clearing side's own counter stream
	UpdateEventViewed UpdateEventType = "viewed"
)

// UpdateEvent is a real-time change notification published whenever a ward or
// the center writes to a request, incident or device
type UpdateEvent struct {
	ID            string                 `json:"id"`
	EntityID      string                 `json:"entity_id"`
	EventType     UpdateEventType        `json:"event_type"`
	WardID        string                 `json:"ward_id"`
	ActorRole     ActorRole              `json:"actor_role"`
	Status        string                 `json:"status,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	ChangedFields map[string]interface{} `json:"changed_fields,omitempty"`
}

// NewUpdateEvent creates a new update event
func NewUpdateEvent(entityID string, eventType UpdateEventType, wardID string, actor ActorRole, status string, changedFields map[string]interface{}) *UpdateEvent {
	return &UpdateEvent{
		ID:            generateEventID(),
		EntityID:      entityID,
		EventType:     eventType,
		WardID:        wardID,
		ActorRole:     actor,
		Status:        status,
		Timestamp:     time.Now(),
		ChangedFields: changedFields,
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
