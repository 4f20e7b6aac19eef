// Copyright (c) 2026 CandidHQ. All rights reserved.

package session

import "context"

// Store defines the persistence contract for application sessions.
//
// # Expiry Semantics
//
// Every read and conditional write is filtered by expiry at the statement
// level: an expired row is indistinguishable from an absent one. Rows are
// only physically removed by Delete and DeleteExpired.
type Store interface {
	// Insert persists a new session row and assigns its ID.
	Insert(ctx context.Context, session *ApplicationSession) error

	// FindByToken returns the unexpired session for the token, or
	// apperr.NotFound if no such row exists (unknown token or expired).
	FindByToken(ctx context.Context, token string) (*ApplicationSession, error)

	// Update overwrites the payload and step in a single conditional
	// statement filtered by token, expiry, and step monotonicity
	// (step_completed <= the new value). Zero rows affected surfaces as
	// apperr.NotFound; the service layer disambiguates a monotonicity
	// refusal from a missing session.
	Update(ctx context.Context, token string, data map[string]any, stepCompleted int) (*ApplicationSession, error)

	// Delete removes the row unconditionally by token.
	// Returns apperr.NotFound if no row existed.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes all rows past their expiry and reports how
	// many were deleted. Idempotent and safe to run concurrently.
	DeleteExpired(ctx context.Context) (int64, error)
}
