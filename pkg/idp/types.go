package idp

import "strings"

// Token is the ephemeral token pair returned by the provider's token
// endpoint. It is handed to callers verbatim and never persisted.
type Token struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

// Claims are the decoded fields of a verified bearer token describing
// the authenticated principal.
type Claims struct {
	Subject           string      `json:"sub"`
	PreferredUsername string      `json:"preferred_username"`
	Email             string      `json:"email"`
	Name              string      `json:"name"`
	GivenName         string      `json:"given_name"`
	FamilyName        string      `json:"family_name"`
	RealmAccess       RealmAccess `json:"realm_access"`
	Expiry            int64       `json:"exp"`
}

// RealmAccess carries the realm-level role names embedded in a token
type RealmAccess struct {
	Roles []string `json:"roles"`
}

// HasRole reports whether the claims carry the given realm role
func (c *Claims) HasRole(role string) bool {
	if c == nil {
		return false
	}
	for _, r := range c.RealmAccess.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// DisplayName derives a display name from the claims: the name claim
// when present, else given and family name joined, else the username.
func (c *Claims) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	if joined := strings.TrimSpace(strings.TrimSpace(c.GivenName) + " " + strings.TrimSpace(c.FamilyName)); joined != "" {
		return joined
	}
	return c.PreferredUsername
}

// IdentityRecord is the subset of the provider's user representation
// this service reads.
type IdentityRecord struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Enabled   bool   `json:"enabled"`
}

// NewIdentity describes an identity to create in the provider
type NewIdentity struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Enabled   bool
	Roles     []string
}

// IdentityUpdate carries identity-owned fields to change in the
// provider. Nil fields are left untouched.
type IdentityUpdate struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
}

// Role is a realm role as reported by the provider. Roles are never
// created or mutated here, only listed and assigned.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Composite   bool   `json:"composite"`
	ClientRole  bool   `json:"clientRole"`
}
