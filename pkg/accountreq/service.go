package accountreq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/janus/pkg/identity"
	"github.com/platinummonkey/janus/pkg/idp"
	"github.com/platinummonkey/janus/pkg/observability"
)

// DefaultRole is granted to every identity provisioned through the
// approval flow.
const DefaultRole = "user"

// Provisioner creates identities in the external provider
type Provisioner interface {
	CreateIdentity(ctx context.Context, identity idp.NewIdentity) (string, error)
}

// UserSeeder creates local user records
type UserSeeder interface {
	Create(ctx context.Context, user *identity.User) (*identity.User, error)
}

// ApprovalResult describes a successful approval. The temporary
// password is returned once, for the administrator to hand over out of
// band; it is not stored anywhere.
type ApprovalResult struct {
	Request      *AccountRequest `json:"request"`
	UserID       string          `json:"userId"`
	TempPassword string          `json:"tempPassword"`
}

// Service drives the account request workflow
type Service struct {
	store       *Store
	provisioner Provisioner
	users       UserSeeder
	logger      *observability.Logger
	metrics     *observability.Metrics

	newPassword func() (string, error)
}

// NewService creates the workflow service
func NewService(store *Store, provisioner Provisioner, users UserSeeder, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:       store,
		provisioner: provisioner,
		users:       users,
		logger:      logger,
		metrics:     metrics,
		newPassword: idp.GenerateTempPassword,
	}
}

// Submit records a new pending account request
func (s *Service) Submit(ctx context.Context, sub Submission) (*AccountRequest, error) {
	sub.Username = strings.TrimSpace(sub.Username)
	sub.Email = strings.TrimSpace(sub.Email)
	if sub.Username == "" || sub.Email == "" {
		return nil, fmt.Errorf("username and email are required")
	}

	req, err := s.store.Create(ctx, sub)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("request_id", req.ID).Info("account request submitted")
	s.observe("submitted")
	return req, nil
}

// Get fetches a single request
func (s *Service) Get(ctx context.Context, id string) (*AccountRequest, error) {
	return s.store.GetByID(ctx, id)
}

// List returns requests, optionally filtered by status
func (s *Service) List(ctx context.Context, status Status) ([]AccountRequest, error) {
	return s.store.List(ctx, status)
}

// Approve provisions the requested identity in the provider and marks
// the request approved. A request that is no longer pending fails
// before any provider call is made.
func (s *Service) Approve(ctx context.Context, id, decidedBy string) (*ApprovalResult, error) {
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, id)
	}

	password, err := s.newPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate temporary password: %w", err)
	}

	userID, err := s.provisioner.CreateIdentity(ctx, idp.NewIdentity{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  password,
		Enabled:   true,
		Roles:     []string{DefaultRole},
	})
	if err != nil {
		s.observe("approve_failed")
		return nil, fmt.Errorf("failed to provision identity: %w", err)
	}

	// Seed the local record. Reconciliation recreates it on first
	// login if this write is lost, so a failure here does not undo the
	// provisioned identity.
	if _, err := s.users.Create(ctx, &identity.User{
		ID:       userID,
		Username: req.Username,
		Email:    req.Email,
		Name:     strings.TrimSpace(req.FirstName + " " + req.LastName),
	}); err != nil && !errors.Is(err, identity.ErrConflict) {
		s.logger.WithError(err).WithField("request_id", id).Warn("failed to seed local record for approved request")
	}

	decided, err := s.store.Decide(ctx, id, StatusApproved, decidedBy)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"request_id": id,
		"user_id":    userID,
		"decided_by": decidedBy,
	}).Info("account request approved")
	s.observe("approved")

	return &ApprovalResult{Request: decided, UserID: userID, TempPassword: password}, nil
}

// Reject marks a pending request rejected. Nothing is provisioned.
func (s *Service) Reject(ctx context.Context, id, decidedBy string) (*AccountRequest, error) {
	req, err := s.store.Decide(ctx, id, StatusRejected, decidedBy)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(map[string]interface{}{
		"request_id": id,
		"decided_by": decidedBy,
	}).Info("account request rejected")
	s.observe("rejected")
	return req, nil
}

func (s *Service) observe(transition string) {
	if s.metrics != nil {
		s.metrics.AccountRequestsTotal.WithLabelValues(transition).Inc()
	}
}
