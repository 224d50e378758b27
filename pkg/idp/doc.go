// Package idp is the client for the external identity provider.
//
// The provider owns credentials, token issuance, role-to-user mapping
// and the enabled flag; this package exposes the two surfaces the rest
// of the service needs:
//
//   - Client: the OAuth2 token endpoint (password, client_credentials
//     and refresh_token grants). The admin token obtained via the
//     client_credentials grant is cached for its validity window and
//     re-acquired automatically when it expires.
//   - Directory: the administrative REST API for identity CRUD,
//     password resets and realm role listing/assignment, authenticated
//     with the admin token.
//
// All outbound calls carry a bounded timeout. Remote failures are
// mapped to the package's sentinel errors and never passed through
// raw.
package idp
