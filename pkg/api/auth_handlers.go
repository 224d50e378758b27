package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/janus/pkg/httputil"
	"github.com/platinummonkey/janus/pkg/idp"
)

// login handles POST /auth/login
//
// Failures are reported with a single opaque message regardless of
// whether the username, the password or the account state was at
// fault.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.UsernameOrEmail, "usernameOrEmail") ||
		!httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	token, err := s.tokens.PasswordGrant(r.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		httputil.WriteUnauthorized(w, "invalid credentials")
		return
	}
	httputil.WriteSuccess(w, token)
}

// register handles POST /auth/register: the identity is created in the
// provider and the new credentials are exchanged for a token pair in
// the same call.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Username, "username") ||
		!httputil.RequireNonEmpty(w, req.Email, "email") ||
		!httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	_, err := s.directory.CreateIdentity(r.Context(), idp.NewIdentity{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Enabled:   true,
	})
	if err != nil {
		if errors.Is(err, idp.ErrExists) {
			httputil.WriteConflict(w, "username or email already taken")
			return
		}
		s.logger.WithError(err).Error("registration failed")
		httputil.WriteBadGateway(w, "identity provider unavailable")
		return
	}

	token, err := s.tokens.PasswordGrant(r.Context(), req.Username, req.Password)
	if err != nil {
		s.logger.WithError(err).Error("post-registration login failed")
		httputil.WriteBadGateway(w, "identity provider unavailable")
		return
	}
	httputil.WriteCreated(w, token)
}

// refresh handles POST /auth/refresh
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.RefreshToken, "refreshToken") {
		return
	}

	token, err := s.tokens.RefreshGrant(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.WriteUnauthorized(w, "invalid or expired refresh token")
		return
	}
	httputil.WriteSuccess(w, token)
}
