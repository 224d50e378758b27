// Package identity owns the local user record and keeps it
// synchronized with the external identity provider.
//
// The local row mirrors the provider's subject identifier, username
// and email; the provider is the authority for all three. The store
// additionally holds application-specific fields the provider knows
// nothing about. Roles and the enabled flag are never persisted — they
// are derived live from token claims or the directory at read time.
//
// The Reconciler aligns a local record with the claims of a verified
// token: the username is the durable correlation key, and the row's
// primary key is corrected in place when the provider's subject
// identifier for that username changes (realm rebuilds and migrations
// reassign subjects). The unique constraint on username makes
// reconciliation idempotent under concurrent first-access.
package identity
