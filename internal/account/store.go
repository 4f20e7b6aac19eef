// Copyright (c) 2026 CandidHQ. All rights reserved.

package account

import "context"

// Store defines the persistence contract for applicant accounts.
type Store interface {
	// Insert persists a new applicant row and assigns its ID.
	//
	// Unique-constraint violations surface as apperr.Conflict with the
	// violated constraint name recoverable via dberr.UniqueConstraint,
	// so the service can tell a username collision (retryable) from a
	// second promotion of the same session (terminal).
	Insert(ctx context.Context, applicant *Applicant) error

	// VerifyByToken closes the email handshake in one conditional
	// update: sets is_verified, stamps email_verified_at, and clears
	// the verification token, filtered by that token. Zero rows
	// affected surfaces as apperr.InvalidToken — an unknown token and
	// an already-used one are indistinguishable to the caller.
	VerifyByToken(ctx context.Context, verificationToken string) error

	// RefreshVerificationToken replaces the verification token on the
	// unverified account holding the email address, invalidating any
	// previously issued token, and returns the account holder's first
	// name for the notification. Verified and unknown accounts surface
	// as apperr.NotFound.
	RefreshVerificationToken(ctx context.Context, emailAddress, newToken string) (string, error)
}
