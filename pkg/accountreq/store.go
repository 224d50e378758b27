package accountreq

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const requestColumns = "id, username, email, first_name, last_name, reason, status, decided_by, decided_at, created_at, updated_at"

// Store persists account requests in PostgreSQL
type Store struct {
	db *sql.DB
}

// NewStore creates an account request store backed by the given database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new pending request and returns it
func (s *Store) Create(ctx context.Context, sub Submission) (*AccountRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO account_requests (id, username, email, first_name, last_name, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+requestColumns,
		uuid.NewString(), sub.Username, sub.Email, sub.FirstName, sub.LastName, sub.Reason,
	)
	req, err := scanRequest(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create account request: %w", err)
	}
	return req, nil
}

// GetByID fetches a request by identifier
func (s *Store) GetByID(ctx context.Context, id string) (*AccountRequest, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM account_requests WHERE id = $1", id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get account request: %w", err)
	}
	return req, nil
}

// List returns requests newest first, optionally filtered by status
func (s *Store) List(ctx context.Context, status Status) ([]AccountRequest, error) {
	query := "SELECT " + requestColumns + " FROM account_requests"
	var args []interface{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list account requests: %w", err)
	}
	defer rows.Close()

	var requests []AccountRequest
	for rows.Next() {
		req, err := scanRequestRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account request: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// Decide moves a pending request to a terminal status. The update is
// conditional on the row still being pending, so a request that has
// already been decided fails with ErrInvalidTransition regardless of
// which decision came first.
func (s *Store) Decide(ctx context.Context, id string, status Status, decidedBy string) (*AccountRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE account_requests
		SET status = $1, decided_by = $2, decided_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND status = 'pending'
		RETURNING `+requestColumns,
		string(status), decidedBy, id,
	)
	req, err := scanRequest(row)
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to decide account request: %w", err)
	}

	// No pending row matched: either the request does not exist or it
	// was already decided.
	if _, getErr := s.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, id)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row *sql.Row) (*AccountRequest, error) {
	return scanRequestRow(row)
}

func scanRequestRow(row scanner) (*AccountRequest, error) {
	var (
		req       AccountRequest
		decidedBy sql.NullString
		decidedAt sql.NullTime
	)
	if err := row.Scan(
		&req.ID, &req.Username, &req.Email, &req.FirstName, &req.LastName,
		&req.Reason, &req.Status, &decidedBy, &decidedAt, &req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if decidedBy.Valid {
		req.DecidedBy = decidedBy.String
	}
	if decidedAt.Valid {
		req.DecidedAt = &decidedAt.Time
	}
	return &req, nil
}
