package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/janus/pkg/accountreq"
	"github.com/platinummonkey/janus/pkg/authz"
	"github.com/platinummonkey/janus/pkg/httputil"
	"github.com/platinummonkey/janus/pkg/idp"
)

// hiddenRole reports whether a realm role is provider plumbing that
// should not be offered for assignment.
func hiddenRole(name string) bool {
	return strings.HasPrefix(name, "uma_") || strings.HasPrefix(name, "offline_")
}

func roleSummary(role idp.Role) RoleSummary {
	description := role.Description
	if description == "" {
		description = role.Name + " role"
	}
	return RoleSummary{
		ID:          role.ID,
		Name:        role.Name,
		Description: description,
		IsDefault:   role.Name == accountreq.DefaultRole,
	}
}

// listRoles handles GET /roles: the realm catalog minus provider
// plumbing roles
func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r, authz.Policy{RequiredRole: authz.RoleAdmin}); !ok {
		return
	}

	catalog, err := s.directory.ListRoles(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("role catalog fetch failed")
		httputil.WriteBadGateway(w, "identity provider unavailable")
		return
	}

	summaries := []RoleSummary{}
	for _, role := range catalog {
		if hiddenRole(role.Name) {
			continue
		}
		summaries = append(summaries, roleSummary(role))
	}
	httputil.WriteSuccess(w, summaries)
}

// getRole handles GET /roles/{name}
func (s *Server) getRole(w http.ResponseWriter, r *http.Request) {
	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}
	if _, ok := s.authorize(w, r, authz.Policy{RequiredRole: authz.RoleAdmin}); !ok {
		return
	}
	if hiddenRole(name) {
		httputil.WriteNotFoundError(w, "role not found")
		return
	}

	role, err := s.directory.GetRole(r.Context(), name)
	if err != nil {
		if errors.Is(err, idp.ErrNotFound) {
			httputil.WriteNotFoundError(w, "role not found")
			return
		}
		s.logger.WithError(err).Error("role fetch failed")
		httputil.WriteBadGateway(w, "identity provider unavailable")
		return
	}
	httputil.WriteSuccess(w, roleSummary(*role))
}
