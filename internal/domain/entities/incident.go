package entities

import (
	"time"
)

// IncidentStatus represents the approval-then-resolution state of an incident
type IncidentStatus string

const (
	IncidentStatusPendingWardApproval IncidentStatus = "pending_ward_approval"
	IncidentStatusWardApproved        IncidentStatus = "ward_approved"
	IncidentStatusWardRejected        IncidentStatus = "ward_rejected"
	IncidentStatusInvestigating       IncidentStatus = "investigating"
	IncidentStatusInProgress          IncidentStatus = "in_progress"
	IncidentStatusResolved            IncidentStatus = "resolved"
	IncidentStatusClosed              IncidentStatus = "closed"
)

// IncidentSeverity represents how badly the reported problem bites
type IncidentSeverity string

const (
	IncidentSeverityLow      IncidentSeverity = "low"
	IncidentSeverityMedium   IncidentSeverity = "medium"
	IncidentSeverityHigh     IncidentSeverity = "high"
	IncidentSeverityCritical IncidentSeverity = "critical"
)

// Incident is a reported device problem tracked through ward approval and
// resolution stages. HasNewUpdate and LastUpdateByRole drive the notification
// counters only.
type Incident struct {
	ID                 string           `json:"id" db:"id"`
	WardID             string           `json:"ward_id" db:"ward_id"`
	WardName           string           `json:"ward_name" db:"ward_name"`
	DeviceID           string           `json:"device_id" db:"device_id"`
	DeviceName         string           `json:"device_name" db:"device_name"`
	ReportedBy         string           `json:"reported_by" db:"reported_by"`
	ReportedByName     string           `json:"reported_by_name" db:"reported_by_name"`
	Title              string           `json:"title" db:"title"`
	Description        string           `json:"description" db:"description"`
	Severity           IncidentSeverity `json:"severity" db:"severity"`
	Status             IncidentStatus   `json:"status" db:"status"`
	WardApprovedBy     string           `json:"ward_approved_by" db:"ward_approved_by"`
	WardApprovedByName string           `json:"ward_approved_by_name" db:"ward_approved_by_name"`
	WardApprovedAt     *time.Time       `json:"ward_approved_at,omitempty" db:"ward_approved_at"`
	WardApprovalComment string          `json:"ward_approval_comment" db:"ward_approval_comment"`
	WardRejectionReason string          `json:"ward_rejection_reason" db:"ward_rejection_reason"`
	AssignedTechnician string           `json:"assigned_technician" db:"assigned_technician"`
	ExpectedResolution string           `json:"expected_resolution" db:"expected_resolution"`
	ActualResolution   string           `json:"actual_resolution" db:"actual_resolution"`
	ResolvedAt         *time.Time       `json:"resolved_at,omitempty" db:"resolved_at"`
	ImageURLs          []string         `json:"image_urls" db:"image_urls"`
	HasNewUpdate       bool             `json:"has_new_update" db:"has_new_update"`
	LastUpdateByRole   ActorRole        `json:"last_update_by_role" db:"last_update_by_role"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`
}
