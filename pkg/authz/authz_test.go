package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/janus/pkg/idp"
)

func claimsWith(subject string, roles ...string) *idp.Claims {
	return &idp.Claims{
		Subject:     subject,
		RealmAccess: idp.RealmAccess{Roles: roles},
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		claims  *idp.Claims
		policy  Policy
		allowed bool
		reason  Reason
	}{
		{
			name:    "nil claims are unauthenticated",
			claims:  nil,
			policy:  Policy{},
			allowed: false,
			reason:  ReasonUnauthenticated,
		},
		{
			name:    "empty subject is unauthenticated",
			claims:  &idp.Claims{},
			policy:  Policy{RequiredRole: RoleAdmin},
			allowed: false,
			reason:  ReasonUnauthenticated,
		},
		{
			name:    "any authenticated caller when no role required",
			claims:  claimsWith("u1"),
			policy:  Policy{},
			allowed: true,
		},
		{
			name:    "role match",
			claims:  claimsWith("u1", RoleAdmin),
			policy:  Policy{RequiredRole: RoleAdmin},
			allowed: true,
		},
		{
			name:    "role missing",
			claims:  claimsWith("u1", RoleUser),
			policy:  Policy{RequiredRole: RoleAdmin},
			allowed: false,
			reason:  ReasonMissingRole,
		},
		{
			name:   "owner allowed without role",
			claims: claimsWith("u1", RoleUser),
			policy: Policy{
				RequiredRole:  RoleAdmin,
				SelfOrAdmin:   true,
				TargetOwnerID: "u1",
			},
			allowed: true,
		},
		{
			name:   "non-owner without role denied",
			claims: claimsWith("u1", RoleUser),
			policy: Policy{
				RequiredRole:  RoleAdmin,
				SelfOrAdmin:   true,
				TargetOwnerID: "u2",
			},
			allowed: false,
			reason:  ReasonNotOwner,
		},
		{
			name:   "admin allowed on other user",
			claims: claimsWith("admin1", RoleAdmin),
			policy: Policy{
				RequiredRole:  RoleAdmin,
				TargetOwnerID: "u2",
				ForbidSelf:    true,
			},
			allowed: true,
		},
		{
			name:   "admin blocked acting on self",
			claims: claimsWith("admin1", RoleAdmin),
			policy: Policy{
				RequiredRole:  RoleAdmin,
				TargetOwnerID: "admin1",
				ForbidSelf:    true,
			},
			allowed: false,
			reason:  ReasonSelfActionBlocked,
		},
		{
			// A caller without the role learns only that the role is
			// missing, not that the target is their own record.
			name:   "missing role wins over self block",
			claims: claimsWith("u1"),
			policy: Policy{
				RequiredRole:  RoleAdmin,
				TargetOwnerID: "u1",
				ForbidSelf:    true,
			},
			allowed: false,
			reason:  ReasonMissingRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Decide(tt.claims, tt.policy)
			assert.Equal(t, tt.allowed, decision.Allowed)
			if !tt.allowed {
				assert.Equal(t, tt.reason, decision.Reason)
			}
		})
	}
}
