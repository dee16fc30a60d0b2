package entities

import (
	"time"
)

// WardUserRole represents the membership role within a ward
type WardUserRole string

const (
	WardUserRoleWard WardUserRole = "ward"
	WardUserRoleUser WardUserRole = "user"
)

// WardUser links a person to a ward and optionally to one of its rooms.
// RoomID is either empty (unassigned) or references a WardRoom of the same ward.
type WardUser struct {
	ID        string       `json:"id" db:"id"`
	UserID    string       `json:"user_id" db:"user_id"`
	WardID    string       `json:"ward_id" db:"ward_id"`
	WardName  string       `json:"ward_name" db:"ward_name"`
	RoomID    string       `json:"room_id" db:"room_id"`
	RoomName  string       `json:"room_name" db:"room_name"`
	Role      WardUserRole `json:"role" db:"role"`
	FullName  string       `json:"full_name" db:"full_name"`
	Email     string       `json:"email" db:"email"`
	Phone     string       `json:"phone" db:"phone"`
	IsActive  bool         `json:"is_active" db:"is_active"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}
