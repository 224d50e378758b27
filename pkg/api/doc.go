// Package api implements the HTTP surface of the service: token
// endpoints, user profile management, the account request workflow and
// the role catalog.
//
// Handlers depend on small consumer-side interfaces rather than the
// concrete components, so tests can run the full routing stack against
// fakes. Authorization is decided per route by pkg/authz from the
// verified claims the authentication middleware attaches.
package api
