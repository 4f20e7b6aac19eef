// Copyright (c) 2026 CandidHQ. All rights reserved.

/*
Package session implements the application-session state machine that carries
an applicant through the onboarding flow.

A session is created once the applicant accepts every legal agreement, lives
for exactly 24 hours, and accumulates per-step payload until the account
promotion step consumes it.

Architecture:

  - Service: Orchestrates business rules (agreement gate, step monotonicity).
  - Store: Abstracted interface over PostgreSQL (expiry-filtered CRUD).
  - Token: A UUIDv4 bearer capability, the only client-facing handle.

The package guarantees that an expired session behaves as not-found on every
operation, and that step progress never moves backwards.
*/
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/candidhq/intake/internal/platform/apperr"
	"github.com/candidhq/intake/internal/platform/validate"
)

// Service implements the session lifecycle use cases.
type Service struct {
	store Store
}

// NewService constructs a new session [Service] with its store dependency.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// # Session Creation

// CreateInput holds the agreement record required to open a session.
type CreateInput struct {
	Timestamp              string
	AgreedToTerms          bool
	AgreedToDataProtection bool
	AgreedToPrivacy        bool
}

/*
Create validates the agreement triple and opens a new application session.

Description: All three agreements must be accepted; anything less is a
ValidationError and no row is written. On success the session starts at
step 0 with its payload seeded from the agreement record, and expires
exactly [TTL] after creation.

Parameters:
  - ctx: context.Context
  - input: CreateInput

Returns:
  - *ApplicationSession: The created session (token, id, expiry)
  - err: ValidationError or storage errors
*/
func (service *Service) Create(ctx context.Context, input CreateInput) (*ApplicationSession, error) {

	// Gate on the legal agreements. Partial acceptance never creates state.
	validator := &validate.Validator{}
	validator.RequiredTrue("agreedToTerms", input.AgreedToTerms).
		RequiredTrue("agreedToDataProtection", input.AgreedToDataProtection).
		RequiredTrue("agreedToPrivacy", input.AgreedToPrivacy)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &ApplicationSession{
		Token:         uuid.NewString(),
		StepCompleted: 0,
		ExpiresAt:     now.Add(TTL),
		CreatedAt:     now,
		Data: map[string]any{
			"agreements": Agreements{
				Terms:          input.AgreedToTerms,
				DataProtection: input.AgreedToDataProtection,
				Privacy:        input.AgreedToPrivacy,
				Timestamp:      input.Timestamp,
			},
			"started_at": now.Format(time.RFC3339),
		},
	}

	if err := service.store.Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("session_service_create_failed: %w", err)
	}

	return session, nil
}

// # Session Access

/*
Get retrieves the full projection of an unexpired session.

Parameters:
  - ctx: context.Context
  - token: string

Returns:
  - *ApplicationSession: Hydrated session
  - err: apperr.NotFound for unknown or expired tokens
*/
func (service *Service) Get(ctx context.Context, token string) (*ApplicationSession, error) {
	if token == "" {
		return nil, validate.RequiredError("token", "is required")
	}
	return service.store.FindByToken(ctx, token)
}

/*
Update advances a session's payload and progress marker.

Description: The step must fall inside the legal range and may never
decrease — a regression is refused with a ValidationError while leaving
the row untouched. The overwrite itself happens in a single conditional
statement, so concurrent updates against the same token serialize at the
store and cannot corrupt the payload.

Parameters:
  - ctx: context.Context
  - token: string
  - data: map[string]any (full payload replacement)
  - stepCompleted: int

Returns:
  - *ApplicationSession: The updated projection
  - err: ValidationError (bad step), apperr.NotFound (unknown/expired)
*/
func (service *Service) Update(ctx context.Context, token string, data map[string]any, stepCompleted int) (*ApplicationSession, error) {

	validator := &validate.Validator{}
	validator.Required("token", token).
		Range("stepCompleted", stepCompleted, 0, MaxStep)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	updated, err := service.store.Update(ctx, token, data, stepCompleted)
	if err == nil {
		return updated, nil
	}

	// Zero rows affected is ambiguous: the token may be unknown/expired, or
	// the caller tried to move the step backwards. Re-read to tell them apart.
	if apperr.IsCode(err, "NOT_FOUND") {
		current, findErr := service.store.FindByToken(ctx, token)
		if findErr == nil && current.StepCompleted > stepCompleted {
			return nil, apperr.ValidationError(
				fmt.Sprintf("stepCompleted cannot decrease (currently %d)", current.StepCompleted),
			)
		}
	}

	return nil, err
}

/*
Delete removes a session regardless of its expiry state.

Parameters:
  - ctx: context.Context
  - token: string

Returns:
  - err: apperr.NotFound if no row existed
*/
func (service *Service) Delete(ctx context.Context, token string) error {
	if token == "" {
		return validate.RequiredError("token", "is required")
	}
	return service.store.Delete(ctx, token)
}

// # Housekeeping

/*
CleanupExpired purges every session past its expiry.

Description: Idempotent by construction — a second immediate run reports
zero deletions. Intended caller is an internal scheduler holding a
service credential, never the public.

Parameters:
  - ctx: context.Context

Returns:
  - int64: Number of sessions removed
  - err: Storage failures
*/
func (service *Service) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := service.store.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("session_service_cleanup_failed: %w", err)
	}
	return deleted, nil
}
