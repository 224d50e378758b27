// Package authz is the authorization decision point. Decisions are
// pure functions of verified token claims and a declared policy;
// nothing here touches storage or the identity provider.
package authz

import "github.com/platinummonkey/janus/pkg/idp"

// Realm roles the service reasons about
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Reason classifies why a request was denied
type Reason string

const (
	ReasonUnauthenticated   Reason = "unauthenticated"
	ReasonMissingRole       Reason = "missing_role"
	ReasonNotOwner          Reason = "not_owner"
	ReasonSelfActionBlocked Reason = "self_action_blocked"
)

// Policy declares what a route demands of the caller
type Policy struct {
	// RequiredRole must be present in the caller's realm roles.
	// Empty means any authenticated caller.
	RequiredRole string
	// SelfOrAdmin allows the owner of the target resource through
	// even without RequiredRole. TargetOwnerID names the owner.
	SelfOrAdmin   bool
	TargetOwnerID string
	// ForbidSelf denies the caller acting on their own record even
	// when the role check passes. Used for enable/disable, role
	// changes and deletion so an administrator cannot lock
	// themselves out.
	ForbidSelf bool
}

// Decision is the outcome of evaluating a policy
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Allowed: false, Reason: r} }

// Decide evaluates a policy against the caller's claims. Rules apply
// in order: authentication, role or ownership, then self-action
// blocking. The role check runs first so a caller without the role is
// told only that the role is missing, not whether the target happens
// to be their own record.
func Decide(claims *idp.Claims, policy Policy) Decision {
	if claims == nil || claims.Subject == "" {
		return deny(ReasonUnauthenticated)
	}

	isOwner := policy.TargetOwnerID != "" && claims.Subject == policy.TargetOwnerID

	if policy.RequiredRole != "" && !claims.HasRole(policy.RequiredRole) {
		if !policy.SelfOrAdmin {
			return deny(ReasonMissingRole)
		}
		if !isOwner {
			return deny(ReasonNotOwner)
		}
		// ownership stands in for the role
	}

	if policy.ForbidSelf && isOwner {
		return deny(ReasonSelfActionBlocked)
	}
	return allow()
}
