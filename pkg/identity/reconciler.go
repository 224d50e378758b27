package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/platinummonkey/janus/pkg/idp"
	"github.com/platinummonkey/janus/pkg/observability"
)

// Reconciler aligns local user records with verified token claims
type Reconciler struct {
	store   *Store
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewReconciler creates a reconciler over the given store
func NewReconciler(store *Store, logger *observability.Logger, metrics *observability.Metrics) *Reconciler {
	return &Reconciler{store: store, logger: logger, metrics: metrics}
}

// ResolveOrCreate returns the local record for the identity the claims
// describe, creating or repairing it as needed. The username is the
// correlation key:
//
//   - a row with the claimed username and matching id is returned as is
//   - a row with the claimed username but a different id has its id
//     rewritten to the claimed subject
//   - no row means a new one is created from the claims
//
// A create that loses a race with a concurrent first-access re-reads
// the surviving row instead of failing.
func (r *Reconciler) ResolveOrCreate(ctx context.Context, claims *idp.Claims) (*User, error) {
	if claims == nil || claims.Subject == "" || claims.PreferredUsername == "" {
		return nil, ErrInvalidClaims
	}

	user, err := r.store.GetByUsername(ctx, claims.PreferredUsername)
	switch {
	case err == nil:
		if user.ID == claims.Subject {
			r.observe("match")
			return user, nil
		}
		corrected, err := r.store.CorrectID(ctx, claims.PreferredUsername, claims.Subject)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile identity: %w", err)
		}
		r.logger.WithFields(map[string]interface{}{
			"username": claims.PreferredUsername,
			"old_id":   user.ID,
			"new_id":   claims.Subject,
		}).Warn("corrected stale subject identifier on local record")
		r.observe("id_corrected")
		return corrected, nil

	case errors.Is(err, ErrUserNotFound):
		created, err := r.store.Create(ctx, &User{
			ID:       claims.Subject,
			Username: claims.PreferredUsername,
			Email:    claims.Email,
			Name:     claims.DisplayName(),
		})
		if err == nil {
			r.logger.WithField("username", claims.PreferredUsername).Info("created local record for identity")
			r.observe("created")
			return created, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("failed to reconcile identity: %w", err)
		}

		// Lost the race; the winner's row is authoritative, but its id
		// may still need correcting to our claims' subject.
		existing, err := r.store.GetByUsername(ctx, claims.PreferredUsername)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile identity: %w", err)
		}
		if existing.ID != claims.Subject {
			existing, err = r.store.CorrectID(ctx, claims.PreferredUsername, claims.Subject)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile identity: %w", err)
			}
		}
		r.observe("conflict_retry")
		return existing, nil

	default:
		return nil, fmt.Errorf("failed to reconcile identity: %w", err)
	}
}

func (r *Reconciler) observe(outcome string) {
	if r.metrics != nil {
		r.metrics.ReconciliationsTotal.WithLabelValues(outcome).Inc()
	}
}
