package identity

import (
	"errors"
	"time"
)

// User is the local record for an identity known to the service. The
// id, username and email mirror the identity provider; name is owned
// by this service and never leaves it.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the application-owned fields a profile write
// may change. Identity-owned fields travel through the directory
// adapter instead and are absent here on purpose.
type ProfileUpdate struct {
	Name *string
}

var (
	// ErrUserNotFound is returned when no local record matches
	ErrUserNotFound = errors.New("user not found")
	// ErrConflict is returned when an insert collides with an existing
	// row on a unique column
	ErrConflict = errors.New("user already exists")
	// ErrInvalidClaims is returned when a token's claims are missing
	// the fields reconciliation correlates on
	ErrInvalidClaims = errors.New("token claims missing subject or username")
)
