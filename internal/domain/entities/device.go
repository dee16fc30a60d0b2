package entities

import (
	"time"
)

// DeviceStatus represents the lifecycle state of a device
type DeviceStatus string

const (
	DeviceStatusActive      DeviceStatus = "active"
	DeviceStatusInactive    DeviceStatus = "inactive"
	DeviceStatusMaintenance DeviceStatus = "maintenance"
	DeviceStatusError       DeviceStatus = "error"
)

// Device represents a tracked IT asset owned by a ward or held in the unassigned pool
type Device struct {
	ID             string            `json:"id" db:"id"`
	Name           string            `json:"name" db:"name"`
	Category       string            `json:"category" db:"category"`
	Status         DeviceStatus      `json:"status" db:"status"`
	Location       string            `json:"location" db:"location"`
	SerialNumber   string            `json:"serial_number" db:"serial_number"`
	WardID         *string           `json:"ward_id,omitempty" db:"ward_id"`
	WardName       string            `json:"ward_name" db:"ward_name"`
	Specifications map[string]string `json:"specifications" db:"specifications"`
	AssignedTo     *string           `json:"assigned_to,omitempty" db:"assigned_to"`
	AssignedToName string            `json:"assigned_to_name" db:"assigned_to_name"`
	InstalledAt    *time.Time        `json:"installed_at,omitempty" db:"installed_at"`
	MaintainedAt   *time.Time        `json:"maintained_at,omitempty" db:"maintained_at"`
	ImageURLs      []string          `json:"image_urls" db:"image_urls"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// IsAssignable reports whether the device can be assigned to a person.
// A device already assigned to someone is not available for new assignment.
func (d *Device) IsAssignable() bool {
	return d.AssignedTo == nil && d.Status == DeviceStatusActive
}
