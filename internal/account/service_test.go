// Copyright (c) 2026 CandidHQ. All rights reserved.

package account

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candidhq/intake/internal/email"
	"github.com/candidhq/intake/internal/platform/apperr"
	"github.com/candidhq/intake/internal/platform/dberr"
	"github.com/candidhq/intake/internal/platform/sec"
	"github.com/candidhq/intake/internal/session"
)

// uniqueViolation fabricates the classified error a real Postgres store
// produces for the given constraint.
func uniqueViolation(constraint string) error {
	return dberr.Wrap(&pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: constraint,
	}, "Applicant")
}

// fakeStore is an in-memory [Store] enforcing the same unique constraints
// as the applicants table.
type fakeStore struct {
	nextID        int64
	byID          map[int64]*Applicant
	usernames     map[string]bool
	sessionTokens map[string]bool

	// usernameConflicts forces the first N inserts to fail with a
	// username unique violation regardless of the actual value.
	usernameConflicts int

	insertCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:          make(map[int64]*Applicant),
		usernames:     make(map[string]bool),
		sessionTokens: make(map[string]bool),
	}
}

func (store *fakeStore) Insert(_ context.Context, applicant *Applicant) error {
	store.insertCalls++

	if store.sessionTokens[applicant.SessionToken] {
		return uniqueViolation(ConstraintSessionToken)
	}
	if store.usernameConflicts > 0 {
		store.usernameConflicts--
		return uniqueViolation(ConstraintUsername)
	}
	if store.usernames[applicant.Username] {
		return uniqueViolation(ConstraintUsername)
	}

	store.nextID++
	applicant.ID = store.nextID
	applicant.CreatedAt = time.Now()

	saved := *applicant
	store.byID[applicant.ID] = &saved
	store.usernames[applicant.Username] = true
	store.sessionTokens[applicant.SessionToken] = true
	return nil
}

func (store *fakeStore) VerifyByToken(_ context.Context, verificationToken string) error {
	for _, applicant := range store.byID {
		if applicant.VerificationToken != nil && *applicant.VerificationToken == verificationToken {
			now := time.Now()
			applicant.IsVerified = true
			applicant.EmailVerifiedAt = &now
			applicant.VerificationToken = nil
			return nil
		}
	}
	return apperr.InvalidToken("Invalid or expired verification token")
}

func (store *fakeStore) RefreshVerificationToken(_ context.Context, emailAddress, newToken string) (string, error) {
	for _, applicant := range store.byID {
		if applicant.Email == emailAddress && !applicant.IsVerified {
			applicant.VerificationToken = &newToken
			return applicant.FirstName, nil
		}
	}
	return "", apperr.NotFound("Unverified account")
}

// fakeSessions serves a fixed set of live session tokens.
type fakeSessions struct {
	live     map[string]bool
	getCalls int
}

func (sessions *fakeSessions) Get(_ context.Context, token string) (*session.ApplicationSession, error) {
	sessions.getCalls++
	if !sessions.live[token] {
		return nil, apperr.NotFound("Session")
	}
	return &session.ApplicationSession{Token: token, StepCompleted: 4}, nil
}

// verificationSend captures one SendVerification invocation.
type verificationSend struct {
	toEmail   string
	firstName string
	token     string
}

// recordingNotifier captures sends. Welcome delivery happens on a
// goroutine, so its receipt is signalled through a channel; verification
// sends are synchronous and recorded in place.
type recordingNotifier struct {
	welcomes      chan email.WelcomeInput
	verifications []verificationSend
	err           error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{welcomes: make(chan email.WelcomeInput, 1)}
}

func (notifier *recordingNotifier) SendWelcome(_ context.Context, input email.WelcomeInput) error {
	notifier.welcomes <- input
	return notifier.err
}

func (notifier *recordingNotifier) SendVerification(_ context.Context, toEmail, firstName, token string) error {
	notifier.verifications = append(notifier.verifications, verificationSend{
		toEmail:   toEmail,
		firstName: firstName,
		token:     token,
	})
	return notifier.err
}

func validInput() PromoteInput {
	return PromoteInput{
		SessionToken: "11111111-1111-1111-1111-111111111111",
		FirstName:    "José",
		Surname:      "Müller",
		IDNumber:     "9001011234567",
		Email:        "jose@example.com",
		Phone:        "+27110000000",
		Country:      "South Africa",
	}
}

func newPromotionFixture() (*Service, *fakeStore, *fakeSessions, *recordingNotifier) {
	store := newFakeStore()
	sessions := &fakeSessions{live: map[string]bool{validInput().SessionToken: true}}
	notifier := newRecordingNotifier()
	return NewService(store, sessions, notifier), store, sessions, notifier
}

func TestPromote(t *testing.T) {
	service, store, _, notifier := newPromotionFixture()

	result, err := service.Promote(context.Background(), validInput())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[a-z]+\d{3}$`), result.Username)
	assert.Contains(t, result.Username, "josemuller")
	assert.Len(t, result.Password, sec.GeneratedPasswordLength)
	assert.NotEmpty(t, result.VerificationToken)

	saved := store.byID[result.AccountID]
	require.NotNil(t, saved)
	assert.Equal(t, CompletionAtCreation, saved.CompletionPercentage)
	assert.False(t, saved.IsVerified)
	assert.NotEqual(t, result.Password, saved.PasswordHash)
	assert.True(t, sec.CheckPasswordHash(result.Password, saved.PasswordHash))

	// The welcome mail carries the same one-time credentials.
	select {
	case welcome := <-notifier.welcomes:
		assert.Equal(t, "jose@example.com", welcome.ToEmail)
		assert.Equal(t, result.Username, welcome.Username)
		assert.Equal(t, result.Password, welcome.Password)
		assert.Equal(t, result.VerificationToken, welcome.VerificationToken)
	case <-time.After(time.Second):
		t.Fatal("welcome email was never dispatched")
	}
}

func TestPromote_ExactlyOncePerSession(t *testing.T) {
	service, store, _, notifier := newPromotionFixture()

	_, err := service.Promote(context.Background(), validInput())
	require.NoError(t, err)
	<-notifier.welcomes

	_, err = service.Promote(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "CONFLICT"), "got %v", err)
	assert.Len(t, store.byID, 1)
}

func TestPromote_RetriesUsernameCollisions(t *testing.T) {
	service, store, _, notifier := newPromotionFixture()
	store.usernameConflicts = 2

	result, err := service.Promote(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, 3, store.insertCalls)
	assert.NotEmpty(t, result.Username)
	<-notifier.welcomes
}

func TestPromote_UsernameRetryIsBounded(t *testing.T) {
	service, store, _, _ := newPromotionFixture()
	store.usernameConflicts = 100

	_, err := service.Promote(context.Background(), validInput())
	require.Error(t, err)

	// Exhausted retries are still a collision: the caller must get a
	// conflict it can act on, never a generic server error.
	assert.True(t, apperr.IsCode(err, "CONFLICT"), "got %v", err)
	assert.Equal(t, usernameAttempts, store.insertCalls)
	assert.Empty(t, store.byID)
}

func TestPromote_UnfoldableNames(t *testing.T) {
	service, store, _, _ := newPromotionFixture()

	input := validInput()
	input.FirstName = "123"
	input.Surname = "456"

	_, err := service.Promote(context.Background(), input)
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)

	// Neither name folded, so neither field is singled out.
	fields := make([]string, 0, len(ae.Details))
	for _, detail := range ae.Details {
		fields = append(fields, detail.Field)
	}
	assert.ElementsMatch(t, []string{"firstName", "surname"}, fields)
	assert.Empty(t, store.byID)
}

func TestPromote_ExpiredSession(t *testing.T) {
	service, store, sessions, _ := newPromotionFixture()
	sessions.live = map[string]bool{}

	_, err := service.Promote(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
	assert.Zero(t, store.insertCalls)
}

func TestPromote_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PromoteInput)
	}{
		{name: "missing_session_token", mutate: func(i *PromoteInput) { i.SessionToken = "" }},
		{name: "missing_first_name", mutate: func(i *PromoteInput) { i.FirstName = "" }},
		{name: "missing_surname", mutate: func(i *PromoteInput) { i.Surname = "" }},
		{name: "missing_id_number", mutate: func(i *PromoteInput) { i.IDNumber = "" }},
		{name: "missing_email", mutate: func(i *PromoteInput) { i.Email = "" }},
		{name: "malformed_email", mutate: func(i *PromoteInput) { i.Email = "not-an-email" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store, sessions, _ := newPromotionFixture()

			input := validInput()
			tt.mutate(&input)

			_, err := service.Promote(context.Background(), input)
			require.Error(t, err)
			assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"), "got %v", err)
			assert.Zero(t, sessions.getCalls, "validation must fail before the session read")
			assert.Zero(t, store.insertCalls)
		})
	}
}

func TestPromote_EmailFailureDoesNotFailPromotion(t *testing.T) {
	service, store, _, notifier := newPromotionFixture()
	notifier.err = errors.New("provider down")

	result, err := service.Promote(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotZero(t, result.AccountID)
	assert.Len(t, store.byID, 1)
	<-notifier.welcomes
}

func TestVerify_OneTimeUse(t *testing.T) {
	service, store, _, notifier := newPromotionFixture()

	result, err := service.Promote(context.Background(), validInput())
	require.NoError(t, err)
	<-notifier.welcomes

	require.NoError(t, service.Verify(context.Background(), result.VerificationToken))

	saved := store.byID[result.AccountID]
	assert.True(t, saved.IsVerified)
	assert.NotNil(t, saved.EmailVerifiedAt)
	assert.Nil(t, saved.VerificationToken)

	// A replay fails exactly like an unknown token.
	err = service.Verify(context.Background(), result.VerificationToken)
	assert.True(t, apperr.IsCode(err, "INVALID_TOKEN"))

	err = service.Verify(context.Background(), "never-issued")
	assert.True(t, apperr.IsCode(err, "INVALID_TOKEN"))
}

func TestVerify_EmptyToken(t *testing.T) {
	service, _, _, _ := newPromotionFixture()

	// An empty token was never issued; it fails exactly like any other
	// unknown token.
	err := service.Verify(context.Background(), "")
	assert.True(t, apperr.IsCode(err, "INVALID_TOKEN"))
}

func TestResendVerification(t *testing.T) {
	service, store, _, notifier := newPromotionFixture()

	result, err := service.Promote(context.Background(), validInput())
	require.NoError(t, err)
	<-notifier.welcomes

	require.NoError(t, service.ResendVerification(context.Background(), "jose@example.com"))

	// The rotated token went out with the account holder's name.
	require.Len(t, notifier.verifications, 1)
	sent := notifier.verifications[0]
	assert.Equal(t, "jose@example.com", sent.toEmail)
	assert.Equal(t, "José", sent.firstName)
	assert.NotEmpty(t, sent.token)

	// Rotation invalidates the originally issued token.
	err = service.Verify(context.Background(), result.VerificationToken)
	assert.True(t, apperr.IsCode(err, "INVALID_TOKEN"))

	// The re-mailed token closes the handshake.
	require.NoError(t, service.Verify(context.Background(), sent.token))
	assert.True(t, store.byID[result.AccountID].IsVerified)
}

func TestResendVerification_Errors(t *testing.T) {
	t.Run("unknown_email", func(t *testing.T) {
		service, _, _, notifier := newPromotionFixture()

		err := service.ResendVerification(context.Background(), "nobody@example.com")
		assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
		assert.Empty(t, notifier.verifications)
	})

	t.Run("already_verified", func(t *testing.T) {
		service, _, _, notifier := newPromotionFixture()

		result, err := service.Promote(context.Background(), validInput())
		require.NoError(t, err)
		<-notifier.welcomes
		require.NoError(t, service.Verify(context.Background(), result.VerificationToken))

		err = service.ResendVerification(context.Background(), "jose@example.com")
		assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
		assert.Empty(t, notifier.verifications)
	})

	t.Run("malformed_email", func(t *testing.T) {
		service, _, _, _ := newPromotionFixture()

		err := service.ResendVerification(context.Background(), "not-an-email")
		assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
	})

	t.Run("provider_failure_surfaces", func(t *testing.T) {
		service, _, _, notifier := newPromotionFixture()

		_, err := service.Promote(context.Background(), validInput())
		require.NoError(t, err)
		<-notifier.welcomes

		notifier.err = errors.New("provider down")
		err = service.ResendVerification(context.Background(), "jose@example.com")
		assert.True(t, apperr.IsCode(err, "DEPENDENCY_ERROR"), "got %v", err)
	})
}
