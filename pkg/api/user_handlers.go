package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/janus/pkg/authz"
	"github.com/platinummonkey/janus/pkg/httputil"
	"github.com/platinummonkey/janus/pkg/identity"
	"github.com/platinummonkey/janus/pkg/idp"
	"github.com/platinummonkey/janus/pkg/middleware"
)

// authorize evaluates the policy for the request and writes the
// failure response itself when the caller is not allowed through.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, policy authz.Policy) (*idp.Claims, bool) {
	claims := middleware.GetClaims(r)
	decision := authz.Decide(claims, policy)
	if decision.Allowed {
		return claims, true
	}

	switch decision.Reason {
	case authz.ReasonUnauthenticated:
		httputil.WriteUnauthorized(w, "authentication required")
	case authz.ReasonSelfActionBlocked:
		httputil.WriteForbidden(w, "cannot perform this action on your own account")
	default:
		httputil.WriteForbidden(w, "insufficient privileges")
	}
	return nil, false
}

// writeDirectoryError maps provider failures onto HTTP statuses
func (s *Server) writeDirectoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, idp.ErrNotFound):
		httputil.WriteNotFoundError(w, "user not found")
	default:
		s.logger.WithError(err).Error("directory operation failed")
		httputil.WriteBadGateway(w, "identity provider unavailable")
	}
}

// listUsers handles GET /users
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r, authz.Policy{RequiredRole: authz.RoleAdmin}); !ok {
		return
	}

	users, err := s.users.List(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if users == nil {
		users = []identity.User{}
	}
	httputil.WriteSuccess(w, users)
}

// me handles GET /users/me: the caller's local record, reconciled with
// the token claims and enriched with live directory state. The
// directory enrichment is best-effort; roles always come from the
// token.
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authorize(w, r, authz.Policy{})
	if !ok {
		return
	}

	user, err := s.resolver.ResolveOrCreate(r.Context(), claims)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidClaims) {
			httputil.WriteUnauthorized(w, "token claims are incomplete")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	profile := Profile{User: *user, Roles: claims.RealmAccess.Roles}
	if profile.Roles == nil {
		profile.Roles = []string{}
	}
	if record, err := s.directory.GetIdentity(r.Context(), user.ID); err == nil {
		profile.Enabled = &record.Enabled
	} else {
		s.logger.WithError(err).Debug("directory enrichment skipped")
	}

	httputil.WriteSuccess(w, profile)
}

// getUser handles GET /users/{id}
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if _, ok := s.authorize(w, r, authz.Policy{
		RequiredRole:  authz.RoleAdmin,
		SelfOrAdmin:   true,
		TargetOwnerID: id,
	}); !ok {
		return
	}

	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// updateProfile handles PATCH /users/{id}. The request schema only
// admits application-owned fields; identity-owned fields (username,
// email) are rejected by the parser and have their own endpoint.
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if _, ok := s.authorize(w, r, authz.Policy{
		RequiredRole:  authz.RoleAdmin,
		SelfOrAdmin:   true,
		TargetOwnerID: id,
	}); !ok {
		return
	}

	var req UpdateProfileRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := s.users.UpdateAppData(r.Context(), id, identity.ProfileUpdate{Name: req.Name})
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// updateIdentity handles PATCH /users/{id}/identity: the change is
// written to the provider first and mirrored locally only once the
// provider has accepted it, so the correlation key cannot drift.
func (s *Server) updateIdentity(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if _, ok := s.authorize(w, r, authz.Policy{
		RequiredRole:  authz.RoleAdmin,
		SelfOrAdmin:   true,
		TargetOwnerID: id,
	}); !ok {
		return
	}

	var req UpdateIdentityRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Username == nil && req.Email == nil {
		httputil.WriteBadRequest(w, "no fields to update")
		return
	}

	err := s.directory.UpdateIdentity(r.Context(), id, idp.IdentityUpdate{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		s.writeDirectoryError(w, err)
		return
	}

	user, err := s.users.UpdateIdentityMirror(r.Context(), id, req.Username, req.Email)
	if err != nil {
		// The provider accepted the change but there is no local row
		// yet; reconciliation will materialize it on next login.
		if errors.Is(err, identity.ErrUserNotFound) {
			httputil.WriteSuccess(w, StatusResponse{Success: true, UserID: id})
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// setPassword handles PUT /users/{id}/password
func (s *Server) setPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if _, ok := s.authorize(w, r, authz.Policy{
		RequiredRole:  authz.RoleAdmin,
		SelfOrAdmin:   true,
		TargetOwnerID: id,
	}); !ok {
		return
	}

	var req PasswordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	if err := s.directory.SetPassword(r.Context(), id, req.Password); err != nil {
		s.writeDirectoryError(w, err)
		return
	}
	httputil.WriteSuccess(w, StatusResponse{Success: true, UserID: id})
}

// setStatus handles PUT /users/{id}/status. Administrators cannot
// disable their own account.
func (s *Server) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if _, ok := s.authorize(w, r, authz.Policy{
		RequiredRole:  authz.RoleAdmin,
		TargetOwnerID: id,
		ForbidSelf:    true,
	}); !ok {
		return
	}

	var req StatusRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.directory.SetEnabled(r.Context(), id, req.Enabled); err != nil {
		s.writeDirectoryError(w, err)
		return
	}
	httputil.WriteSuccess(w, StatusResponse{Success: true, UserID: id, Enabled: &req.Enabled})
}

// assignRoles handles PUT /users/{id}/roles. Administrators cannot
// change their own roles.
func (s *Server) assignRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if _, ok := s.authorize(w, r, authz.Policy{
		RequiredRole:  authz.RoleAdmin,
		TargetOwnerID: id,
		ForbidSelf:    true,
	}); !ok {
		return
	}

	var req RolesRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.Roles) == 0 {
		httputil.WriteBadRequest(w, "roles is required")
		return
	}

	assigned, err := s.directory.AssignRoles(r.Context(), id, req.Roles)
	if err != nil {
		if errors.Is(err, idp.ErrNoValidRoles) {
			httputil.WriteBadRequest(w, "no valid roles specified")
			return
		}
		s.writeDirectoryError(w, err)
		return
	}
	httputil.WriteSuccess(w, StatusResponse{Success: true, UserID: id, Roles: assigned})
}

// deleteUser handles DELETE /users/{id}. The local record is removed
// and returned; the provider identity is left in place and can be
// disabled through the status endpoint instead.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if _, ok := s.authorize(w, r, authz.Policy{
		RequiredRole:  authz.RoleAdmin,
		TargetOwnerID: id,
		ForbidSelf:    true,
	}); !ok {
		return
	}

	user, err := s.users.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}
