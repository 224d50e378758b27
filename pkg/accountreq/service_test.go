package accountreq

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/janus/pkg/identity"
	"github.com/platinummonkey/janus/pkg/idp"
	"github.com/platinummonkey/janus/pkg/observability"
)

type fakeProvisioner struct {
	created []idp.NewIdentity
	userID  string
	err     error
}

func (f *fakeProvisioner) CreateIdentity(ctx context.Context, ni idp.NewIdentity) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, ni)
	return f.userID, nil
}

type fakeSeeder struct {
	seeded []*identity.User
	err    error
}

func (f *fakeSeeder) Create(ctx context.Context, user *identity.User) (*identity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.seeded = append(f.seeded, user)
	return user, nil
}

func testService(t *testing.T, provisioner *fakeProvisioner, seeder *fakeSeeder) (*Service, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	svc := NewService(NewStore(db), provisioner, seeder, logger, nil)
	svc.newPassword = func() (string, error) { return "temp-pass", nil }
	return svc, mock, func() { db.Close() }
}

func TestService_Submit_Validation(t *testing.T) {
	svc, _, done := testService(t, &fakeProvisioner{}, &fakeSeeder{})
	defer done()

	_, err := svc.Submit(context.Background(), Submission{Username: "  ", Email: "a@example.com"})
	assert.Error(t, err)

	_, err = svc.Submit(context.Background(), Submission{Username: "alice"})
	assert.Error(t, err)
}

func TestService_Approve(t *testing.T) {
	provisioner := &fakeProvisioner{userID: "new-sub"}
	seeder := &fakeSeeder{}
	svc, mock, done := testService(t, provisioner, seeder)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM account_requests WHERE id").
		WithArgs("req-1").
		WillReturnRows(pendingRow("req-1", "alice"))
	mock.ExpectQuery("UPDATE account_requests").
		WithArgs("approved", "admin-1", "req-1").
		WillReturnRows(decidedRow("req-1", "alice", StatusApproved, "admin-1"))

	result, err := svc.Approve(context.Background(), "req-1", "admin-1")
	require.NoError(t, err)

	assert.Equal(t, "new-sub", result.UserID)
	assert.Equal(t, "temp-pass", result.TempPassword)
	assert.Equal(t, StatusApproved, result.Request.Status)

	require.Len(t, provisioner.created, 1)
	assert.Equal(t, "alice", provisioner.created[0].Username)
	assert.True(t, provisioner.created[0].Enabled)
	assert.Equal(t, []string{DefaultRole}, provisioner.created[0].Roles)
	assert.Equal(t, "temp-pass", provisioner.created[0].Password)

	require.Len(t, seeder.seeded, 1)
	assert.Equal(t, "new-sub", seeder.seeded[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Approve_AlreadyDecided(t *testing.T) {
	provisioner := &fakeProvisioner{userID: "new-sub"}
	svc, mock, done := testService(t, provisioner, &fakeSeeder{})
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM account_requests WHERE id").
		WithArgs("req-1").
		WillReturnRows(decidedRow("req-1", "alice", StatusRejected, "admin-2"))

	_, err := svc.Approve(context.Background(), "req-1", "admin-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	// Nothing was provisioned for a decided request.
	assert.Empty(t, provisioner.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Approve_ProvisioningFails(t *testing.T) {
	provisioner := &fakeProvisioner{err: idp.ErrDirectory}
	svc, mock, done := testService(t, provisioner, &fakeSeeder{})
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM account_requests WHERE id").
		WithArgs("req-1").
		WillReturnRows(pendingRow("req-1", "alice"))

	_, err := svc.Approve(context.Background(), "req-1", "admin-1")
	assert.ErrorIs(t, err, idp.ErrDirectory)
	// The request stays pending; no decision row was written.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Approve_SeedFailureTolerated(t *testing.T) {
	provisioner := &fakeProvisioner{userID: "new-sub"}
	seeder := &fakeSeeder{err: errors.New("connection reset")}
	svc, mock, done := testService(t, provisioner, seeder)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM account_requests WHERE id").
		WithArgs("req-1").
		WillReturnRows(pendingRow("req-1", "alice"))
	mock.ExpectQuery("UPDATE account_requests").
		WithArgs("approved", "admin-1", "req-1").
		WillReturnRows(decidedRow("req-1", "alice", StatusApproved, "admin-1"))

	// The identity exists in the provider, so a failed local seed must
	// not fail the approval; reconciliation recreates the row later.
	result, err := svc.Approve(context.Background(), "req-1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, result.Request.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Reject(t *testing.T) {
	provisioner := &fakeProvisioner{userID: "new-sub"}
	svc, mock, done := testService(t, provisioner, &fakeSeeder{})
	defer done()

	mock.ExpectQuery("UPDATE account_requests").
		WithArgs("rejected", "admin-1", "req-1").
		WillReturnRows(decidedRow("req-1", "alice", StatusRejected, "admin-1"))

	req, err := svc.Reject(context.Background(), "req-1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, req.Status)
	assert.Empty(t, provisioner.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
