package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const userColumns = "id, username, email, name, created_at, updated_at"

// Store persists local user records in PostgreSQL
type Store struct {
	db *sql.DB
}

// NewStore creates a user store backed by the given database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new user record. A collision on id or username
// returns ErrConflict so callers can re-read the surviving row.
func (s *Store) Create(ctx context.Context, user *User) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, email, name)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		user.ID, user.Username, user.Email, user.Name,
	)

	created, err := scanUser(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: %s", ErrConflict, user.Username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// GetByID fetches a user by its provider-assigned identifier
func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByUsername fetches a user by the durable correlation key
func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1", username)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List returns all users ordered by creation time, newest first
func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CorrectID rewrites the primary key of the row correlated by
// username. Used when the provider has reassigned the subject
// identifier for an existing username.
func (s *Store) CorrectID(ctx context.Context, username, newID string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE users SET id = $1, updated_at = NOW()
		WHERE username = $2
		RETURNING `+userColumns,
		newID, username,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return nil, fmt.Errorf("failed to correct user id: %w", err)
	}
	return user, nil
}

// UpdateAppData writes the application-owned fields of a profile.
// Identity-owned columns are not touched here regardless of what the
// caller was asked for upstream.
func (s *Store) UpdateAppData(ctx context.Context, id string, update ProfileUpdate) (*User, error) {
	if update.Name == nil {
		return s.GetByID(ctx, id)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE users SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+userColumns,
		*update.Name, id,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// UpdateIdentityMirror refreshes the locally mirrored identity fields
// after the provider has accepted a change to them
func (s *Store) UpdateIdentityMirror(ctx context.Context, id string, username, email *string) (*User, error) {
	if username == nil && email == nil {
		return s.GetByID(ctx, id)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE users SET
			username = COALESCE($1, username),
			email = COALESCE($2, email),
			updated_at = NOW()
		WHERE id = $3
		RETURNING `+userColumns,
		username, email, id,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: username taken", ErrConflict)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Delete removes a user record and returns the removed row
func (s *Store) Delete(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"DELETE FROM users WHERE id = $1 RETURNING "+userColumns, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
