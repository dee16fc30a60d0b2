package entities

import (
	"time"
)

// ActorRole identifies which side of the ward/center boundary performed a write.
// It is stamped onto requests and incidents for notification bookkeeping.
type ActorRole string

const (
	ActorRoleWard   ActorRole = "ward"
	ActorRoleCenter ActorRole = "center"
)

// Opposite returns the other party's role
func (r ActorRole) Opposite() ActorRole {
	if r == ActorRoleWard {
		return ActorRoleCenter
	}
	return ActorRoleWard
}

// UserRole represents an account's system-wide role
type UserRole string

const (
	UserRoleWard   UserRole = "ward"
	UserRoleCenter UserRole = "center"
	UserRoleAdmin  UserRole = "admin"
)

// User represents an account in the system
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	WardID       *string   `json:"ward_id,omitempty" db:"ward_id"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserProfile holds account metadata decoupled from the credential record
type UserProfile struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Phone     string    `json:"phone" db:"phone"`
	Title     string    `json:"title" db:"title"`
	AvatarURL string    `json:"avatar_url" db:"avatar_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserSettings holds per-user UI preferences
type UserSettings struct {
	ID                 string    `json:"id" db:"id"`
	UserID             string    `json:"user_id" db:"user_id"`
	Language           string    `json:"language" db:"language"`
	Theme              string    `json:"theme" db:"theme"`
	EmailNotifications bool      `json:"email_notifications" db:"email_notifications"`
	ToastNotifications bool      `json:"toast_notifications" db:"toast_notifications"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}
