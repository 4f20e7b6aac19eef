// Copyright (c) 2026 CandidHQ. All rights reserved.

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/candidhq/intake/internal/platform/dberr"
)

// # Session Store (PostgreSQL)

// PostgresStore implements the [Store] interface using pgx.
//
// # Concurrency
//
// Every conditional write is a single atomic statement
// (WHERE session_token = $1 AND expires_at > NOW()), so concurrent updates
// against the same token serialize at the store and no partial write can
// be observed.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of the session [Store].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
Insert persists a new session row into application_sessions.

Description: Seeds the row with the agreement payload, step 0, and the
fixed expiry, and backfills the store-assigned ID.

Parameters:
  - ctx: context.Context
  - session: *ApplicationSession (Entity to persist)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (store *PostgresStore) Insert(ctx context.Context, session *ApplicationSession) error {
	const query = `
		INSERT INTO application_sessions (
			session_token, extracted_data, step_completed, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	err := store.pool.QueryRow(ctx, query,
		session.Token,
		session.Data,
		session.StepCompleted,
		session.ExpiresAt,
		session.CreatedAt,
	).Scan(&session.ID)

	if err != nil {
		return fmt.Errorf("postgres_session_store_insert_failed: %w", err)
	}

	return nil
}

/*
FindByToken retrieves an unexpired session by its token.

Description: The expiry filter runs in the statement itself, so an expired
row is reported as not found even while it still physically exists.

Parameters:
  - ctx: context.Context
  - token: string

Returns:
  - *ApplicationSession: Hydrated session projection
  - error: apperr.NotFound or database errors
*/
func (store *PostgresStore) FindByToken(ctx context.Context, token string) (*ApplicationSession, error) {
	const query = `
		SELECT id, session_token, extracted_data, step_completed, expires_at, created_at
		FROM application_sessions
		WHERE session_token = $1 AND expires_at > NOW()`

	session := &ApplicationSession{}
	err := store.pool.QueryRow(ctx, query, token).Scan(
		&session.ID,
		&session.Token,
		&session.Data,
		&session.StepCompleted,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "Session")
	}

	return session, nil
}

/*
Update overwrites the session payload and step in one conditional statement.

Description: The WHERE clause enforces token match, non-expiry, AND step
monotonicity atomically. Zero rows affected covers "unknown token",
"expired", and "step regression" alike — the service disambiguates.

Parameters:
  - ctx: context.Context
  - token: string
  - data: map[string]any (full payload replacement)
  - stepCompleted: int

Returns:
  - *ApplicationSession: The updated projection
  - error: apperr.NotFound or database errors
*/
func (store *PostgresStore) Update(ctx context.Context, token string, data map[string]any, stepCompleted int) (*ApplicationSession, error) {
	const query = `
		UPDATE application_sessions
		SET extracted_data = $2, step_completed = $3
		WHERE session_token = $1 AND expires_at > NOW() AND step_completed <= $3
		RETURNING id, session_token, extracted_data, step_completed, expires_at, created_at`

	session := &ApplicationSession{}
	err := store.pool.QueryRow(ctx, query, token, data, stepCompleted).Scan(
		&session.ID,
		&session.Token,
		&session.Data,
		&session.StepCompleted,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "Session")
	}

	return session, nil
}

/*
Delete removes a session row unconditionally by token.

Parameters:
  - ctx: context.Context
  - token: string

Returns:
  - error: apperr.NotFound if no row existed, or execution errors
*/
func (store *PostgresStore) Delete(ctx context.Context, token string) error {
	const query = "DELETE FROM application_sessions WHERE session_token = $1"

	tag, err := store.pool.Exec(ctx, query, token)
	if err != nil {
		return fmt.Errorf("postgres_session_store_delete_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Session")
	}

	return nil
}

/*
DeleteExpired permanently removes all sessions past their expiration.

Description: Cleanup task to reclaim storage from stale sessions. Running
it twice in a row deletes on the second pass only what expired in between.

Parameters:
  - ctx: context.Context

Returns:
  - int64: Number of rows deleted
  - error: Cleanup failures
*/
func (store *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	const query = "DELETE FROM application_sessions WHERE expires_at <= NOW()"

	tag, err := store.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_store_delete_expired_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}
