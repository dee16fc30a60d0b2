package entities

import "time"

// CounterKind identifies one of the live notification counters
type CounterKind string

const (
	// CounterRequestReview counts device requests in the review stages
	// (pending/approved/rejected) changed by the other party
	CounterRequestReview CounterKind = "request_review"

	// CounterRequestDelivering counts device requests currently delivering
	CounterRequestDelivering CounterKind = "request_delivering"

	// CounterIncidents counts incidents changed by the other party
	CounterIncidents CounterKind = "incidents"
)

// CounterUpdate is pushed to a subscriber every time its counter is recomputed.
// Toast is set only when the count strictly exceeded the previous observation
// and the snapshot is not the first one after subscribe.
type CounterUpdate struct {
	Counter   CounterKind `json:"counter"`
	WardID    string      `json:"ward_id,omitempty"`
	ViewerRole ActorRole  `json:"viewer_role"`
	Count     int         `json:"count"`
	Toast     bool        `json:"toast"`
	Timestamp time.Time   `json:"timestamp"`
}
