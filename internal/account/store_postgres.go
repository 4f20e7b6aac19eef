// Copyright (c) 2026 CandidHQ. All rights reserved.

package account

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/candidhq/intake/internal/platform/apperr"
	"github.com/candidhq/intake/internal/platform/dberr"
)

// # Applicant Store (PostgreSQL)

// Constraint names from the applicants migration. The service inspects
// these to decide whether a unique violation is retryable.
const (
	ConstraintUsername          = "applicants_username_key"
	ConstraintSessionToken      = "applicants_session_token_key"
	ConstraintVerificationToken = "applicants_verification_token_key"
)

// PostgresStore implements the [Store] interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of the applicant [Store].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
Insert persists a new applicant row.

Description: A single INSERT carrying the session token under its unique
constraint, so two racing promotions of the same session cannot both
commit. The losing statement reports a unique violation classified into
apperr.Conflict.

Parameters:
  - ctx: context.Context
  - applicant: *Applicant (Entity to persist; ID and CreatedAt backfilled)

Returns:
  - error: apperr.Conflict on unique violations, or database errors
*/
func (store *PostgresStore) Insert(ctx context.Context, applicant *Applicant) error {
	const query = `
		INSERT INTO applicants (
			username, password_hash,
			first_name, surname, email, phone, country, id_number,
			session_token, verification_token, is_verified,
			completion_percentage, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	if applicant.CreatedAt.IsZero() {
		applicant.CreatedAt = time.Now()
	}

	err := store.pool.QueryRow(ctx, query,
		applicant.Username,
		applicant.PasswordHash,
		applicant.FirstName,
		applicant.Surname,
		applicant.Email,
		applicant.Phone,
		applicant.Country,
		applicant.IDNumber,
		applicant.SessionToken,
		applicant.VerificationToken,
		applicant.IsVerified,
		applicant.CompletionPercentage,
		applicant.CreatedAt,
	).Scan(&applicant.ID)

	if err != nil {
		if constraint := dberr.UniqueConstraint(err); constraint != "" {
			return dberr.Wrap(err, "Applicant")
		}
		return fmt.Errorf("postgres_applicant_store_insert_failed: %w", err)
	}

	return nil
}

/*
VerifyByToken marks the account holding the token as verified.

Description: One conditional UPDATE filtered by the verification token.
The same statement clears the token, so a replay finds zero rows and
fails identically to a token that never existed.

Parameters:
  - ctx: context.Context
  - verificationToken: string

Returns:
  - error: apperr.InvalidToken when no row matched, or database errors
*/
func (store *PostgresStore) VerifyByToken(ctx context.Context, verificationToken string) error {
	const query = `
		UPDATE applicants
		SET is_verified = TRUE,
		    email_verified_at = NOW(),
		    verification_token = NULL
		WHERE verification_token = $1`

	tag, err := store.pool.Exec(ctx, query, verificationToken)
	if err != nil {
		return fmt.Errorf("postgres_applicant_store_verify_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.InvalidToken("Invalid or expired verification token")
	}

	return nil
}

/*
RefreshVerificationToken rotates the verification token for an unverified
account.

Description: One conditional UPDATE filtered by email and verification
state. Replacing the token invalidates whatever was issued before, so only
the most recently mailed link can ever close the handshake.

Parameters:
  - ctx: context.Context
  - emailAddress: string
  - newToken: string

Returns:
  - string: The account holder's first name, for the notification
  - error: apperr.NotFound when no unverified account holds the address
*/
func (store *PostgresStore) RefreshVerificationToken(ctx context.Context, emailAddress, newToken string) (string, error) {
	const query = `
		UPDATE applicants
		SET verification_token = $2
		WHERE email = $1 AND is_verified = FALSE
		RETURNING first_name`

	var firstName string
	if err := store.pool.QueryRow(ctx, query, emailAddress, newToken).Scan(&firstName); err != nil {
		return "", dberr.Wrap(err, "Unverified account")
	}

	return firstName, nil
}
