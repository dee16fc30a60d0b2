package entities

import (
	"time"
)

// DeviceRequestStatus represents the fulfillment state of a device request
type DeviceRequestStatus string

const (
	RequestStatusPending    DeviceRequestStatus = "pending"
	RequestStatusApproved   DeviceRequestStatus = "approved"
	RequestStatusRejected   DeviceRequestStatus = "rejected"
	RequestStatusCompleted  DeviceRequestStatus = "completed"
	RequestStatusDelivering DeviceRequestStatus = "delivering"
	RequestStatusReceived   DeviceRequestStatus = "received"
)

// RequestItem is one line of a device request: a category and how many
type RequestItem struct {
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note,omitempty"`
}

// DeviceRequest is a ward's ask for new equipment, tracked through an
// approval-to-delivery lifecycle. HasNewUpdate and LastUpdateByRole are
// notification bookkeeping only, never business state.
type DeviceRequest struct {
	ID               string              `json:"id" db:"id"`
	WardID           string              `json:"ward_id" db:"ward_id"`
	WardName         string              `json:"ward_name" db:"ward_name"`
	RequestedBy      string              `json:"requested_by" db:"requested_by"`
	RequestedByName  string              `json:"requested_by_name" db:"requested_by_name"`
	Items            []RequestItem       `json:"items" db:"items"`
	Justification    string              `json:"justification" db:"justification"`
	Status           DeviceRequestStatus `json:"status" db:"status"`
	ApprovedBy       string              `json:"approved_by" db:"approved_by"`
	ApprovedByName   string              `json:"approved_by_name" db:"approved_by_name"`
	RejectionReason  string              `json:"rejection_reason" db:"rejection_reason"`
	AllocatedSerials []string            `json:"allocated_serials" db:"allocated_serials"`
	Notes            string              `json:"notes" db:"notes"`
	ApprovedAt       *time.Time          `json:"approved_at,omitempty" db:"approved_at"`
	AllocatedAt      *time.Time          `json:"allocated_at,omitempty" db:"allocated_at"`
	DeliveredAt      *time.Time          `json:"delivered_at,omitempty" db:"delivered_at"`
	ReceivedAt       *time.Time          `json:"received_at,omitempty" db:"received_at"`
	HasNewUpdate     bool                `json:"has_new_update" db:"has_new_update"`
	LastUpdateByRole ActorRole           `json:"last_update_by_role" db:"last_update_by_role"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}
