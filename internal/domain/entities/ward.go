package entities

import (
	"time"
)

// Ward represents an administrative district acting as a tenant for devices,
// incidents and requests
type Ward struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Code         string    `json:"code" db:"code"`
	District     string    `json:"district" db:"district"`
	City         string    `json:"city" db:"city"`
	ContactName  string    `json:"contact_name" db:"contact_name"`
	ContactPhone string    `json:"contact_phone" db:"contact_phone"`
	ContactEmail string    `json:"contact_email" db:"contact_email"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// WardRoom is a named sub-unit of a ward (a department or office)
type WardRoom struct {
	ID        string    `json:"id" db:"id"`
	WardID    string    `json:"ward_id" db:"ward_id"`
	Name      string    `json:"name" db:"name"`
	Floor     string    `json:"floor" db:"floor"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
