package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/janus/pkg/accountreq"
	"github.com/platinummonkey/janus/pkg/authz"
	"github.com/platinummonkey/janus/pkg/httputil"
	"github.com/platinummonkey/janus/pkg/idp"
)

// submitAccountRequest handles POST /account-requests. Open to
// unauthenticated visitors.
func (s *Server) submitAccountRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitAccountRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Username, "username") ||
		!httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}

	created, err := s.requests.Submit(r.Context(), accountreq.Submission{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Reason:    req.Reason,
	})
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, created)
}

// listAccountRequests handles GET /account-requests with an optional
// ?status= filter
func (s *Server) listAccountRequests(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r, authz.Policy{RequiredRole: authz.RoleAdmin}); !ok {
		return
	}

	status := accountreq.Status(r.URL.Query().Get("status"))
	switch status {
	case "", accountreq.StatusPending, accountreq.StatusApproved, accountreq.StatusRejected:
	default:
		httputil.WriteBadRequest(w, "invalid status filter")
		return
	}

	requests, err := s.requests.List(r.Context(), status)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if requests == nil {
		requests = []accountreq.AccountRequest{}
	}
	httputil.WriteSuccess(w, requests)
}

// listPendingAccountRequests handles GET /account-requests/pending,
// a shorthand for the status filter that predates it
func (s *Server) listPendingAccountRequests(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r, authz.Policy{RequiredRole: authz.RoleAdmin}); !ok {
		return
	}

	requests, err := s.requests.List(r.Context(), accountreq.StatusPending)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if requests == nil {
		requests = []accountreq.AccountRequest{}
	}
	httputil.WriteSuccess(w, requests)
}

// getAccountRequest handles GET /account-requests/{id}
func (s *Server) getAccountRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if _, ok := s.authorize(w, r, authz.Policy{RequiredRole: authz.RoleAdmin}); !ok {
		return
	}

	req, err := s.requests.Get(r.Context(), id)
	if err != nil {
		s.writeRequestError(w, err)
		return
	}
	httputil.WriteSuccess(w, req)
}

// approveAccountRequest handles POST /account-requests/{id}/approve
func (s *Server) approveAccountRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	claims, ok := s.authorize(w, r, authz.Policy{RequiredRole: authz.RoleAdmin})
	if !ok {
		return
	}

	result, err := s.requests.Approve(r.Context(), id, claims.Subject)
	if err != nil {
		if errors.Is(err, idp.ErrExists) {
			httputil.WriteConflict(w, "an identity with this username already exists")
			return
		}
		if errors.Is(err, idp.ErrDirectory) || errors.Is(err, idp.ErrAdminAuth) {
			s.logger.WithError(err).Error("account request approval failed")
			httputil.WriteBadGateway(w, "identity provider unavailable")
			return
		}
		s.writeRequestError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// rejectAccountRequest handles POST /account-requests/{id}/reject
func (s *Server) rejectAccountRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	claims, ok := s.authorize(w, r, authz.Policy{RequiredRole: authz.RoleAdmin})
	if !ok {
		return
	}

	req, err := s.requests.Reject(r.Context(), id, claims.Subject)
	if err != nil {
		s.writeRequestError(w, err)
		return
	}
	httputil.WriteSuccess(w, req)
}

// writeRequestError maps workflow failures onto HTTP statuses
func (s *Server) writeRequestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accountreq.ErrNotFound):
		httputil.WriteNotFoundError(w, "account request not found")
	case errors.Is(err, accountreq.ErrInvalidTransition):
		httputil.WriteConflict(w, "account request already decided")
	default:
		httputil.WriteInternalError(w, err)
	}
}
