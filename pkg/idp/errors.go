package idp

import "errors"

var (
	// ErrInvalidCredentials is returned when the password grant is
	// rejected. It carries no detail about which factor was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAdminAuth is returned when the service cannot obtain an
	// admin token via the client_credentials grant.
	ErrAdminAuth = errors.New("admin authentication failed")

	// ErrRefresh is returned when a refresh token exchange fails
	ErrRefresh = errors.New("token refresh failed")

	// ErrDirectory is returned for any failure communicating with the
	// provider's administrative API.
	ErrDirectory = errors.New("directory operation failed")

	// ErrExists is returned when creating an identity whose username
	// or email the provider already knows.
	ErrExists = errors.New("identity already exists in directory")

	// ErrNotFound is returned when the provider has no identity or
	// role with the requested identifier.
	ErrNotFound = errors.New("not found in directory")

	// ErrNoValidRoles is returned when a role assignment names no
	// role known to the realm.
	ErrNoValidRoles = errors.New("no valid roles specified")
)
