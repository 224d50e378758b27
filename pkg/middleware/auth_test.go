package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/janus/pkg/idp"
	"github.com/platinummonkey/janus/pkg/observability"
)

type staticVerifier struct {
	claims *idp.Claims
	err    error
}

func (v *staticVerifier) Verify(ctx context.Context, rawToken string) (*idp.Claims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

func echoClaims(t *testing.T, captured **idp.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = GetClaims(r)
		w.WriteHeader(http.StatusOK)
	})
}

func testAuthLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func TestRequire_MissingHeader(t *testing.T) {
	auth := NewAuthenticator(&staticVerifier{claims: &idp.Claims{Subject: "u1"}}, testAuthLogger())

	var captured *idp.Claims
	handler := auth.Require(echoClaims(t, &captured))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
}

func TestRequire_MalformedHeader(t *testing.T) {
	auth := NewAuthenticator(&staticVerifier{claims: &idp.Claims{Subject: "u1"}}, testAuthLogger())

	handler := auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, header := range []string{"Token abc", "Bearer", "abc"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.Header.Set("Authorization", header)
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestRequire_InvalidToken(t *testing.T) {
	auth := NewAuthenticator(&staticVerifier{err: errors.New("expired")}, testAuthLogger())

	handler := auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer stale")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequire_AttachesClaims(t *testing.T) {
	claims := &idp.Claims{Subject: "u1", PreferredUsername: "alice"}
	auth := NewAuthenticator(&staticVerifier{claims: claims}, testAuthLogger())

	var captured *idp.Claims
	handler := auth.Require(echoClaims(t, &captured))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, claims, captured)
}

func TestOptional_AnonymousAllowed(t *testing.T) {
	auth := NewAuthenticator(&staticVerifier{err: errors.New("bad")}, testAuthLogger())

	var captured *idp.Claims
	handler := auth.Optional(echoClaims(t, &captured))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roles", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, captured)
}
