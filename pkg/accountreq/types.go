package accountreq

import (
	"errors"
	"time"
)

// Status is the lifecycle state of an account request
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// AccountRequest is a visitor's application for an account
type AccountRequest struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Status    Status     `json:"status"`
	DecidedBy string     `json:"decidedBy,omitempty"`
	DecidedAt *time.Time `json:"decidedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Submission carries the fields a visitor provides when requesting an
// account
type Submission struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Reason    string
}

var (
	// ErrNotFound is returned when no request matches the identifier
	ErrNotFound = errors.New("account request not found")
	// ErrInvalidTransition is returned when deciding a request that is
	// no longer pending
	ErrInvalidTransition = errors.New("account request already decided")
)
