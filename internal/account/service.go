// Copyright (c) 2026 CandidHQ. All rights reserved.

package account

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/candidhq/intake/internal/email"
	"github.com/candidhq/intake/internal/platform/apperr"
	"github.com/candidhq/intake/internal/platform/ctxutil"
	"github.com/candidhq/intake/internal/platform/dberr"
	"github.com/candidhq/intake/internal/platform/sec"
	"github.com/candidhq/intake/internal/platform/validate"
	"github.com/candidhq/intake/internal/session"
)

const (
	// usernameAttempts bounds the retry loop for username suffix
	// collisions. Three tries against a 1000-value suffix space makes a
	// spurious failure vanishingly unlikely at realistic table sizes.
	usernameAttempts = 3

	// welcomeEmailTimeout bounds the fire-and-forget delivery so a slow
	// mail provider cannot leak goroutines.
	welcomeEmailTimeout = 15 * time.Second
)

// SessionSource is the slice of the session service promotion depends on.
type SessionSource interface {
	Get(ctx context.Context, token string) (*session.ApplicationSession, error)
}

// Service implements account promotion and email verification.
type Service struct {
	store    Store
	sessions SessionSource
	notifier email.Notifier
}

// NewService constructs a new account [Service].
func NewService(store Store, sessions SessionSource, notifier email.Notifier) *Service {
	return &Service{
		store:    store,
		sessions: sessions,
		notifier: notifier,
	}
}

// # Promotion

// PromoteInput carries the session handle plus the identity and contact
// details collected during the application flow.
type PromoteInput struct {
	SessionToken string `json:"sessionToken"`

	FirstName string `json:"firstName"`
	Surname   string `json:"surname"`
	IDNumber  string `json:"idNumber"`

	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Country string `json:"country"`
}

// PromotionResult is returned to the caller exactly once. Password is the
// plaintext credential; it exists nowhere else and is never logged.
type PromotionResult struct {
	AccountID         int64  `json:"accountId"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	Email             string `json:"email"`
	VerificationToken string `json:"verificationToken"`
}

/*
Promote turns an unexpired application session into an applicant account.

Description: Re-reads the session defensively (a token that expired
between the last step and this call fails here, not with a dangling
account), generates credentials, and commits a single INSERT carrying the
session token under its unique constraint. A username suffix collision is
retried with a fresh suffix up to [usernameAttempts] times; a session
token collision is terminal, because it means the session was already
promoted. The welcome email is dispatched after commit on a detached
context and never fails the promotion.

Parameters:
  - ctx: context.Context
  - input: PromoteInput

Returns:
  - *PromotionResult: Account ID plus the one-time plaintext credentials
  - error: ValidationError, apperr.NotFound (unknown/expired session),
    apperr.Conflict (already promoted), or internal errors
*/
func (service *Service) Promote(ctx context.Context, input PromoteInput) (*PromotionResult, error) {

	validator := &validate.Validator{}
	validator.Required("sessionToken", input.SessionToken).
		Required("firstName", input.FirstName).
		Required("surname", input.Surname).
		Required("idNumber", input.IDNumber).
		Required("email", input.Email).
		Email("email", input.Email)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	if _, err := service.sessions.Get(ctx, input.SessionToken); err != nil {
		return nil, err
	}

	password, err := sec.GeneratePassword()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	passwordHash, err := sec.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	verificationToken := uuid.NewString()

	applicant := &Applicant{
		PasswordHash:         passwordHash,
		FirstName:            input.FirstName,
		Surname:              input.Surname,
		Email:                input.Email,
		Phone:                input.Phone,
		Country:              input.Country,
		IDNumber:             input.IDNumber,
		SessionToken:         input.SessionToken,
		VerificationToken:    &verificationToken,
		IsVerified:           false,
		CompletionPercentage: CompletionAtCreation,
	}

	if err := service.insertWithRetry(ctx, applicant, input.FirstName, input.Surname); err != nil {
		return nil, err
	}

	service.dispatchWelcome(ctx, applicant, password, verificationToken)

	return &PromotionResult{
		AccountID:         applicant.ID,
		Username:          applicant.Username,
		Password:          password,
		Email:             applicant.Email,
		VerificationToken: verificationToken,
	}, nil
}

// insertWithRetry commits the applicant row, regenerating the username on
// suffix collisions. Any other unique violation (session token) means the
// session was already promoted and is returned as-is.
func (service *Service) insertWithRetry(ctx context.Context, applicant *Applicant, firstName, surname string) error {
	var lastErr error

	for attempt := 0; attempt < usernameAttempts; attempt++ {
		username, err := GenerateUsername(firstName, surname)
		if err != nil {
			return apperr.ValidationError("Names must contain at least one letter",
				apperr.FieldError{Field: "firstName", Message: "must contain at least one letter"},
				apperr.FieldError{Field: "surname", Message: "must contain at least one letter"},
			)
		}
		applicant.Username = username

		err = service.store.Insert(ctx, applicant)
		if err == nil {
			return nil
		}
		if dberr.UniqueConstraint(err) != ConstraintUsername {
			if apperr.IsCode(err, "CONFLICT") {
				return apperr.Conflict("An account has already been created from this session")
			}
			return err
		}

		lastErr = err
		ctxutil.GetLogger(ctx).InfoContext(ctx, "username_collision_retry",
			"username", username,
			"attempt", attempt+1,
		)
	}

	// Exhaustion is still a username collision, so the caller must see a
	// conflict they can act on (retry with different names), not a 500.
	conflict := apperr.Conflict("Could not allocate a unique username, please retry")
	conflict.Cause = lastErr
	return conflict
}

// dispatchWelcome sends the credentials mail off the request path. The
// context is detached: the HTTP response does not wait for the provider,
// and a cancelled request must not abort an already-committed promotion's
// mail.
func (service *Service) dispatchWelcome(ctx context.Context, applicant *Applicant, password, verificationToken string) {
	logger := ctxutil.GetLogger(ctx)

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), welcomeEmailTimeout)
		defer cancel()

		err := service.notifier.SendWelcome(sendCtx, email.WelcomeInput{
			ToEmail:           applicant.Email,
			FirstName:         applicant.FirstName,
			Username:          applicant.Username,
			Password:          password,
			VerificationToken: verificationToken,
		})
		if err != nil {
			logger.Error("welcome_email_failed",
				"error", err,
				"account_id", applicant.ID,
			)
		}
	}()
}

// # Verification

/*
ResendVerification rotates the verification token for an unverified
account and mails the new link.

Description: Unlike the welcome mail, delivery is the whole point of this
operation, so the send is synchronous and a provider failure is surfaced
as a DependencyError — the caller should retry. The rotation itself
invalidates any previously issued token.

Parameters:
  - ctx: context.Context
  - emailAddress: string

Returns:
  - error: ValidationError, apperr.NotFound (no unverified account holds
    the address), or apperr.Dependency (mail provider failure)
*/
func (service *Service) ResendVerification(ctx context.Context, emailAddress string) error {

	validator := &validate.Validator{}
	validator.Required("email", emailAddress).
		Email("email", emailAddress)

	if err := validator.Err(); err != nil {
		return err
	}

	verificationToken := uuid.NewString()

	firstName, err := service.store.RefreshVerificationToken(ctx, emailAddress, verificationToken)
	if err != nil {
		return err
	}

	if err := service.notifier.SendVerification(ctx, emailAddress, firstName, verificationToken); err != nil {
		return apperr.Dependency("Verification email could not be sent", err)
	}

	return nil
}

/*
Verify closes the email verification handshake.

Description: Delegates to the store's single conditional update. Replayed
and unknown tokens fail identically, so the endpoint leaks nothing about
which tokens ever existed.

Parameters:
  - ctx: context.Context
  - verificationToken: string

Returns:
  - error: apperr.InvalidToken for empty, unknown, and replayed tokens alike
*/
func (service *Service) Verify(ctx context.Context, verificationToken string) error {
	// An empty token was never issued, so it fails like any other token
	// that never existed — no separate validation branch to probe.
	if verificationToken == "" {
		return apperr.InvalidToken("Invalid or expired verification token")
	}
	return service.store.VerifyByToken(ctx, verificationToken)
}
