package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/janus/pkg/accountreq"
	"github.com/platinummonkey/janus/pkg/identity"
	"github.com/platinummonkey/janus/pkg/idp"
	"github.com/platinummonkey/janus/pkg/middleware"
	"github.com/platinummonkey/janus/pkg/observability"
)

// tokenVerifier resolves bearer tokens from a fixed map, standing in
// for the provider's JWKS verification.
type tokenVerifier struct {
	tokens map[string]*idp.Claims
}

func (v *tokenVerifier) Verify(ctx context.Context, rawToken string) (*idp.Claims, error) {
	if claims, ok := v.tokens[rawToken]; ok {
		return claims, nil
	}
	return nil, errors.New("unknown token")
}

type fakeTokens struct {
	token    *idp.Token
	loginErr error
	lastUser string
}

func (f *fakeTokens) PasswordGrant(ctx context.Context, usernameOrEmail, password string) (*idp.Token, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.lastUser = usernameOrEmail
	return f.token, nil
}

func (f *fakeTokens) RefreshGrant(ctx context.Context, refreshToken string) (*idp.Token, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.token, nil
}

type fakeDirectory struct {
	createdID string
	createErr error
	created   []idp.NewIdentity
	records   map[string]*idp.IdentityRecord
	updates   []idp.IdentityUpdate
	enabled   map[string]bool
	passwords map[string]string
	roles     []idp.Role
	assigned  map[string][]string
	rolesErr  error
	recordErr error
	setErr    error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		records:   map[string]*idp.IdentityRecord{},
		enabled:   map[string]bool{},
		passwords: map[string]string{},
		assigned:  map[string][]string{},
	}
}

func (f *fakeDirectory) CreateIdentity(ctx context.Context, ni idp.NewIdentity) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, ni)
	return f.createdID, nil
}

func (f *fakeDirectory) GetIdentity(ctx context.Context, externalID string) (*idp.IdentityRecord, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	record, ok := f.records[externalID]
	if !ok {
		return nil, idp.ErrNotFound
	}
	return record, nil
}

func (f *fakeDirectory) UpdateIdentity(ctx context.Context, externalID string, update idp.IdentityUpdate) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.updates = append(f.updates, update)
	return nil
}

func (f *fakeDirectory) SetEnabled(ctx context.Context, externalID string, enabled bool) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.enabled[externalID] = enabled
	return nil
}

func (f *fakeDirectory) SetPassword(ctx context.Context, externalID, password string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.passwords[externalID] = password
	return nil
}

func (f *fakeDirectory) ListRoles(ctx context.Context) ([]idp.Role, error) {
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return f.roles, nil
}

func (f *fakeDirectory) GetRole(ctx context.Context, name string) (*idp.Role, error) {
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	for _, role := range f.roles {
		if role.Name == name {
			return &role, nil
		}
	}
	return nil, idp.ErrNotFound
}

func (f *fakeDirectory) AssignRoles(ctx context.Context, externalID string, roleNames []string) ([]string, error) {
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	var valid []string
	for _, name := range roleNames {
		for _, role := range f.roles {
			if role.Name == name {
				valid = append(valid, name)
			}
		}
	}
	if len(valid) == 0 {
		return nil, idp.ErrNoValidRoles
	}
	f.assigned[externalID] = valid
	return valid, nil
}

type fakeUserStore struct {
	users     map[string]*identity.User
	deleteErr error
}

func newFakeUserStore(users ...*identity.User) *fakeUserStore {
	store := &fakeUserStore{users: map[string]*identity.User{}}
	for _, u := range users {
		store.users[u.ID] = u
	}
	return store
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*identity.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) List(ctx context.Context) ([]identity.User, error) {
	var out []identity.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserStore) UpdateAppData(ctx context.Context, id string, update identity.ProfileUpdate) (*identity.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	return user, nil
}

func (f *fakeUserStore) UpdateIdentityMirror(ctx context.Context, id string, username, email *string) (*identity.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	if username != nil {
		user.Username = *username
	}
	if email != nil {
		user.Email = *email
	}
	return user, nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id string) (*identity.User, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	user, ok := f.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	delete(f.users, id)
	return user, nil
}

type fakeResolver struct {
	user *identity.User
	err  error
}

func (f *fakeResolver) ResolveOrCreate(ctx context.Context, claims *idp.Claims) (*identity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type fakeRequests struct {
	requests   map[string]*accountreq.AccountRequest
	submitted  []accountreq.Submission
	approveErr error
	result     *accountreq.ApprovalResult
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{requests: map[string]*accountreq.AccountRequest{}}
}

func (f *fakeRequests) Submit(ctx context.Context, sub accountreq.Submission) (*accountreq.AccountRequest, error) {
	f.submitted = append(f.submitted, sub)
	req := &accountreq.AccountRequest{
		ID:       "req-new",
		Username: sub.Username,
		Email:    sub.Email,
		Status:   accountreq.StatusPending,
	}
	f.requests[req.ID] = req
	return req, nil
}

func (f *fakeRequests) Get(ctx context.Context, id string) (*accountreq.AccountRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, accountreq.ErrNotFound
	}
	return req, nil
}

func (f *fakeRequests) List(ctx context.Context, status accountreq.Status) ([]accountreq.AccountRequest, error) {
	var out []accountreq.AccountRequest
	for _, req := range f.requests {
		if status == "" || req.Status == status {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequests) Approve(ctx context.Context, id, decidedBy string) (*accountreq.ApprovalResult, error) {
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	req, ok := f.requests[id]
	if !ok {
		return nil, accountreq.ErrNotFound
	}
	if req.Status != accountreq.StatusPending {
		return nil, accountreq.ErrInvalidTransition
	}
	req.Status = accountreq.StatusApproved
	req.DecidedBy = decidedBy
	if f.result != nil {
		f.result.Request = req
		return f.result, nil
	}
	return &accountreq.ApprovalResult{Request: req, UserID: "new-sub", TempPassword: "temp"}, nil
}

func (f *fakeRequests) Reject(ctx context.Context, id, decidedBy string) (*accountreq.AccountRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, accountreq.ErrNotFound
	}
	if req.Status != accountreq.StatusPending {
		return nil, accountreq.ErrInvalidTransition
	}
	req.Status = accountreq.StatusRejected
	req.DecidedBy = decidedBy
	return req, nil
}

// testDeps is the full set of fakes behind a test server
type testDeps struct {
	tokens    *fakeTokens
	directory *fakeDirectory
	users     *fakeUserStore
	resolver  *fakeResolver
	requests  *fakeRequests
	verifier  *tokenVerifier
}

func newTestServer(t *testing.T) (*Server, *testDeps) {
	t.Helper()
	deps := &testDeps{
		tokens:    &fakeTokens{token: &idp.Token{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 300, TokenType: "Bearer"}},
		directory: newFakeDirectory(),
		users:     newFakeUserStore(),
		resolver:  &fakeResolver{},
		requests:  newFakeRequests(),
		verifier: &tokenVerifier{tokens: map[string]*idp.Claims{
			"admin-token": {
				Subject:           "admin-1",
				PreferredUsername: "root",
				RealmAccess:       idp.RealmAccess{Roles: []string{"admin", "user"}},
			},
			"user-token": {
				Subject:           "user-1",
				PreferredUsername: "alice",
				Email:             "alice@example.com",
				RealmAccess:       idp.RealmAccess{Roles: []string{"user"}},
			},
		}},
	}

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	server := NewServer(Deps{
		Tokens:    deps.tokens,
		Directory: deps.directory,
		Users:     deps.users,
		Resolver:  deps.resolver,
		Requests:  deps.requests,
		Auth:      middleware.NewAuthenticator(deps.verifier, logger),
		Logger:    logger,
	})
	return server, deps
}

// doJSON runs a request through the full routing stack
func doJSON(t *testing.T, server *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

var _ http.Handler = (*Server)(nil)
