package entities

import (
	"time"
)

// SystemSettingsID is the fixed primary key of the singleton settings row
const SystemSettingsID = "system"

// SystemSettings is the singleton system-wide configuration document
type SystemSettings struct {
	ID               string    `json:"id" db:"id"`
	OrganizationName string    `json:"organization_name" db:"organization_name"`
	SupportEmail     string    `json:"support_email" db:"support_email"`
	MaintenanceMode  bool      `json:"maintenance_mode" db:"maintenance_mode"`
	UpdatedBy        string    `json:"updated_by" db:"updated_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
