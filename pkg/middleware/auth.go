// Package middleware provides authentication middleware for the HTTP
// surface. Every protected route runs the bearer token through the
// provider's verifier and stashes the resulting claims in the request
// context; authorization itself happens downstream in the handlers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/platinummonkey/janus/pkg/contextkeys"
	"github.com/platinummonkey/janus/pkg/httputil"
	"github.com/platinummonkey/janus/pkg/idp"
	"github.com/platinummonkey/janus/pkg/observability"
)

// Authenticator verifies bearer tokens on incoming requests
type Authenticator struct {
	verifier idp.ClaimsVerifier
	logger   *observability.Logger
}

// NewAuthenticator creates the authentication middleware
func NewAuthenticator(verifier idp.ClaimsVerifier, logger *observability.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, logger: logger}
}

// Require rejects requests without a valid bearer token
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(contextkeys.WithClaims(r.Context(), claims)))
	})
}

// Optional attaches claims when a valid token is present and lets the
// request through anonymously otherwise. Used on routes that behave
// differently for authenticated callers but are open to all.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw != "" {
			if claims, err := a.verifier.Verify(r.Context(), raw); err == nil {
				r = r.WithContext(contextkeys.WithClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) authenticate(w http.ResponseWriter, r *http.Request) (*idp.Claims, bool) {
	raw := bearerToken(r)
	if raw == "" {
		httputil.WriteUnauthorized(w, "missing bearer token")
		return nil, false
	}

	claims, err := a.verifier.Verify(r.Context(), raw)
	if err != nil {
		a.logger.WithError(err).Debug("rejected bearer token")
		httputil.WriteUnauthorized(w, "invalid or expired token")
		return nil, false
	}
	return claims, true
}

// bearerToken extracts the token from the Authorization header
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetClaims returns the verified claims attached to the request, if any
func GetClaims(r *http.Request) *idp.Claims {
	claims, _ := r.Context().Value(contextkeys.ClaimsKey).(*idp.Claims)
	return claims
}
