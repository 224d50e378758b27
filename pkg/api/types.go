package api

import (
	"context"

	"github.com/platinummonkey/janus/pkg/accountreq"
	"github.com/platinummonkey/janus/pkg/identity"
	"github.com/platinummonkey/janus/pkg/idp"
)

// TokenService exchanges credentials for token pairs
type TokenService interface {
	PasswordGrant(ctx context.Context, usernameOrEmail, password string) (*idp.Token, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*idp.Token, error)
}

// DirectoryService performs administrative operations in the provider
type DirectoryService interface {
	CreateIdentity(ctx context.Context, identity idp.NewIdentity) (string, error)
	GetIdentity(ctx context.Context, externalID string) (*idp.IdentityRecord, error)
	UpdateIdentity(ctx context.Context, externalID string, update idp.IdentityUpdate) error
	SetEnabled(ctx context.Context, externalID string, enabled bool) error
	SetPassword(ctx context.Context, externalID, password string) error
	ListRoles(ctx context.Context) ([]idp.Role, error)
	GetRole(ctx context.Context, name string) (*idp.Role, error)
	AssignRoles(ctx context.Context, externalID string, roleNames []string) ([]string, error)
}

// UserStore reads and writes local user records
type UserStore interface {
	GetByID(ctx context.Context, id string) (*identity.User, error)
	List(ctx context.Context) ([]identity.User, error)
	UpdateAppData(ctx context.Context, id string, update identity.ProfileUpdate) (*identity.User, error)
	UpdateIdentityMirror(ctx context.Context, id string, username, email *string) (*identity.User, error)
	Delete(ctx context.Context, id string) (*identity.User, error)
}

// Resolver reconciles token claims with local records
type Resolver interface {
	ResolveOrCreate(ctx context.Context, claims *idp.Claims) (*identity.User, error)
}

// RequestService drives the account request workflow
type RequestService interface {
	Submit(ctx context.Context, sub accountreq.Submission) (*accountreq.AccountRequest, error)
	Get(ctx context.Context, id string) (*accountreq.AccountRequest, error)
	List(ctx context.Context, status accountreq.Status) ([]accountreq.AccountRequest, error)
	Approve(ctx context.Context, id, decidedBy string) (*accountreq.ApprovalResult, error)
	Reject(ctx context.Context, id, decidedBy string) (*accountreq.AccountRequest, error)
}

// LoginRequest carries end-user credentials. The identifier may be a
// username or an email address.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// RegisterRequest is a self-service signup
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

// RefreshRequest exchanges a refresh token for a fresh pair
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SubmitAccountRequest is a visitor's application for an account
type SubmitAccountRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Reason    string `json:"reason"`
}

// UpdateProfileRequest is the profile write schema. Only the
// application-owned name field is applied here; username, email,
// password and roles have dedicated endpoints and are rejected if set.
type UpdateProfileRequest struct {
	Name *string `json:"name"`
}

// UpdateIdentityRequest changes identity-owned fields through the
// provider. Nil fields are left untouched.
type UpdateIdentityRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// PasswordRequest sets a new permanent password
type PasswordRequest struct {
	Password string `json:"password"`
}

// StatusRequest enables or disables an identity
type StatusRequest struct {
	Enabled bool `json:"enabled"`
}

// RolesRequest assigns realm roles to an identity
type RolesRequest struct {
	Roles []string `json:"roles"`
}

// StatusResponse acknowledges an administrative mutation
type StatusResponse struct {
	Success bool     `json:"success"`
	UserID  string   `json:"userId"`
	Enabled *bool    `json:"enabled,omitempty"`
	Roles   []string `json:"roles,omitempty"`
}

// Profile is a local user enriched with live directory state. Enabled
// is omitted when the directory could not be reached.
type Profile struct {
	identity.User
	Roles   []string `json:"roles"`
	Enabled *bool    `json:"enabled,omitempty"`
}

// RoleSummary is the public view of a realm role
type RoleSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsDefault   bool   `json:"isDefault"`
}
