// Package accountreq implements the account request workflow: visitors
// submit a request for an account, and an administrator later approves
// or rejects it.
//
// A request's status moves monotonically from pending to exactly one of
// approved or rejected; decided requests never change again. The
// transition is enforced with a conditional update so concurrent
// decisions on the same request cannot both win.
//
// Approval provisions the identity in the external provider with a
// generated temporary password and seeds the local user record. The
// local write is best-effort: if it fails after the provider accepted
// the identity, the request is still marked approved, and
// reconciliation recreates the row on the user's first authenticated
// request.
package accountreq
