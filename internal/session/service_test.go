// Copyright (c) 2026 CandidHQ. All rights reserved.

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candidhq/intake/internal/platform/apperr"
	"github.com/candidhq/intake/internal/platform/dberr"
	"github.com/candidhq/intake/internal/session"
)

// fakeStore is an in-memory [session.Store] honoring the same expiry and
// monotonicity filters as the PostgreSQL implementation.
type fakeStore struct {
	rows   map[string]*session.ApplicationSession
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*session.ApplicationSession)}
}

func (store *fakeStore) Insert(_ context.Context, s *session.ApplicationSession) error {
	store.nextID++
	s.ID = store.nextID
	clone := *s
	store.rows[s.Token] = &clone
	return nil
}

func (store *fakeStore) FindByToken(_ context.Context, token string) (*session.ApplicationSession, error) {
	row, ok := store.rows[token]
	if !ok || !row.ExpiresAt.After(time.Now()) {
		return nil, dberr.Wrap(pgx.ErrNoRows, "Session")
	}
	clone := *row
	return &clone, nil
}

func (store *fakeStore) Update(_ context.Context, token string, data map[string]any, stepCompleted int) (*session.ApplicationSession, error) {
	row, ok := store.rows[token]
	if !ok || !row.ExpiresAt.After(time.Now()) || row.StepCompleted > stepCompleted {
		return nil, dberr.Wrap(pgx.ErrNoRows, "Session")
	}
	row.Data = data
	row.StepCompleted = stepCompleted
	clone := *row
	return &clone, nil
}

func (store *fakeStore) Delete(_ context.Context, token string) error {
	if _, ok := store.rows[token]; !ok {
		return dberr.Wrap(pgx.ErrNoRows, "Session")
	}
	delete(store.rows, token)
	return nil
}

func (store *fakeStore) DeleteExpired(_ context.Context) (int64, error) {
	var deleted int64
	for token, row := range store.rows {
		if !row.ExpiresAt.After(time.Now()) {
			delete(store.rows, token)
			deleted++
		}
	}
	return deleted, nil
}

// expire force-ages a stored session past its expiry.
func (store *fakeStore) expire(token string) {
	if row, ok := store.rows[token]; ok {
		row.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

func allAgreed() session.CreateInput {
	return session.CreateInput{
		Timestamp:              time.Now().Format(time.RFC3339),
		AgreedToTerms:          true,
		AgreedToDataProtection: true,
		AgreedToPrivacy:        true,
	}
}

/*
TestService_Create covers the agreement gate and the fixed 24h expiry.
*/
func TestService_Create(t *testing.T) {
	t.Run("creates_session_with_24h_expiry", func(t *testing.T) {
		service := session.NewService(newFakeStore())

		created, err := service.Create(context.Background(), allAgreed())
		require.NoError(t, err)

		assert.NotEmpty(t, created.Token)
		assert.Equal(t, 0, created.StepCompleted)
		assert.Equal(t, session.TTL, created.ExpiresAt.Sub(created.CreatedAt))
		assert.Contains(t, created.Data, "agreements")

		// The token must be retrievable immediately.
		fetched, err := service.Get(context.Background(), created.Token)
		require.NoError(t, err)
		assert.Equal(t, created.Token, fetched.Token)
		assert.Equal(t, 0, fetched.StepCompleted)
	})

	t.Run("rejects_partial_agreements", func(t *testing.T) {
		service := session.NewService(newFakeStore())

		tests := []struct {
			name  string
			input session.CreateInput
		}{
			{"missing_terms", session.CreateInput{AgreedToDataProtection: true, AgreedToPrivacy: true}},
			{"missing_data_protection", session.CreateInput{AgreedToTerms: true, AgreedToPrivacy: true}},
			{"missing_privacy", session.CreateInput{AgreedToTerms: true, AgreedToDataProtection: true}},
			{"all_false", session.CreateInput{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := service.Create(context.Background(), tt.input)
				require.Error(t, err)
				assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
			})
		}
	})
}

/*
TestService_Expiry verifies that expired sessions behave as not-found on
every operation even while the row still exists.
*/
func TestService_Expiry(t *testing.T) {
	store := newFakeStore()
	service := session.NewService(store)

	created, err := service.Create(context.Background(), allAgreed())
	require.NoError(t, err)

	store.expire(created.Token)

	_, err = service.Get(context.Background(), created.Token)
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))

	_, err = service.Update(context.Background(), created.Token, map[string]any{"step": "id"}, 1)
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))

	// Delete is unconditional: the expired row is still deletable.
	assert.NoError(t, service.Delete(context.Background(), created.Token))
}

/*
TestService_Update covers step advancement, range checks, and monotonicity.
*/
func TestService_Update(t *testing.T) {
	newSession := func(t *testing.T) (*session.Service, string) {
		t.Helper()
		service := session.NewService(newFakeStore())
		created, err := service.Create(context.Background(), allAgreed())
		require.NoError(t, err)
		return service, created.Token
	}

	t.Run("advances_step_and_payload", func(t *testing.T) {
		service, token := newSession(t)

		updated, err := service.Update(context.Background(), token, map[string]any{"step": "id"}, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.StepCompleted)
		assert.Equal(t, "id", updated.Data["step"])
	})

	t.Run("same_step_is_allowed", func(t *testing.T) {
		service, token := newSession(t)

		_, err := service.Update(context.Background(), token, map[string]any{"v": 1}, 2)
		require.NoError(t, err)

		// Re-submitting the current step overwrites payload without regression.
		updated, err := service.Update(context.Background(), token, map[string]any{"v": 2}, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.StepCompleted)
	})

	t.Run("rejects_step_regression", func(t *testing.T) {
		service, token := newSession(t)

		_, err := service.Update(context.Background(), token, map[string]any{}, 3)
		require.NoError(t, err)

		_, err = service.Update(context.Background(), token, map[string]any{}, 1)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))

		// The regression attempt must not have mutated the session.
		current, err := service.Get(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, 3, current.StepCompleted)
	})

	t.Run("rejects_step_out_of_range", func(t *testing.T) {
		service, token := newSession(t)

		_, err := service.Update(context.Background(), token, map[string]any{}, -1)
		assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))

		_, err = service.Update(context.Background(), token, map[string]any{}, session.MaxStep+1)
		assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
	})

	t.Run("unknown_token_is_not_found", func(t *testing.T) {
		service, _ := newSession(t)

		_, err := service.Update(context.Background(), "b3a6f3f0-9b1a-4e9f-8f37-0b6c9d2f1a55", map[string]any{}, 1)
		assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
	})
}

/*
TestService_Delete covers removal and double-delete behavior.
*/
func TestService_Delete(t *testing.T) {
	service := session.NewService(newFakeStore())

	created, err := service.Create(context.Background(), allAgreed())
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), created.Token))

	err = service.Delete(context.Background(), created.Token)
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
}

/*
TestService_CleanupExpired verifies counting and idempotency.
*/
func TestService_CleanupExpired(t *testing.T) {
	store := newFakeStore()
	service := session.NewService(store)

	first, err := service.Create(context.Background(), allAgreed())
	require.NoError(t, err)
	second, err := service.Create(context.Background(), allAgreed())
	require.NoError(t, err)
	_, err = service.Create(context.Background(), allAgreed())
	require.NoError(t, err)

	store.expire(first.Token)
	store.expire(second.Token)

	deleted, err := service.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	// Idempotent: an immediate second run has nothing left to remove.
	deleted, err = service.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, deleted)
}
