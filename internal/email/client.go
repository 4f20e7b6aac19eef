// Copyright (c) 2026 CandidHQ. All rights reserved.

/*
Package email sends the transactional mail produced by the onboarding
pipeline through the Resend API.

Delivery is always best-effort from the caller's point of view: account
promotion and verification never fail because an email could not be sent.
*/
package email

import (
	"context"
	"fmt"

	"github.com/resendlabs/resend-go"
)

// WelcomeInput carries everything the welcome mail needs. Credentials
// pass through in plaintext exactly once, here, and must never be logged.
type WelcomeInput struct {
	ToEmail           string
	FirstName         string
	Username          string
	Password          string
	VerificationToken string
}

// Notifier is the delivery contract the promotion flow depends on.
// Implementations must be safe for concurrent use.
type Notifier interface {
	// SendWelcome delivers the credentials + verification link mail
	// sent immediately after an account is created.
	SendWelcome(ctx context.Context, input WelcomeInput) error

	// SendVerification re-delivers just the verification link for an
	// account that has not yet confirmed its email address.
	SendVerification(ctx context.Context, toEmail, firstName, verificationToken string) error
}

// # Resend Implementation

// ResendClient delivers mail through the Resend HTTP API.
type ResendClient struct {
	client        *resend.Client
	fromAddress   string
	portalBaseURL string
}

// NewResendClient creates a Resend-backed [Notifier].
// fromName and fromEmail are combined into a "Name <email>" sender.
func NewResendClient(apiKey, fromName, fromEmail, portalBaseURL string) *ResendClient {
	return &ResendClient{
		client:        resend.NewClient(apiKey),
		fromAddress:   fmt.Sprintf("%s <%s>", fromName, fromEmail),
		portalBaseURL: portalBaseURL,
	}
}

func (notifier *ResendClient) SendWelcome(_ context.Context, input WelcomeInput) error {
	params := &resend.SendEmailRequest{
		From:    notifier.fromAddress,
		To:      []string{input.ToEmail},
		Subject: "Welcome to Intake — your account details",
		Html: welcomeBody(
			input.FirstName,
			input.Username,
			input.Password,
			notifier.verificationURL(input.VerificationToken),
		),
	}

	if _, err := notifier.client.Emails.Send(params); err != nil {
		return fmt.Errorf("resend_welcome_email_failed: %w", err)
	}

	return nil
}

func (notifier *ResendClient) SendVerification(_ context.Context, toEmail, firstName, verificationToken string) error {
	params := &resend.SendEmailRequest{
		From:    notifier.fromAddress,
		To:      []string{toEmail},
		Subject: "Verify your email address",
		Html:    verificationBody(firstName, notifier.verificationURL(verificationToken)),
	}

	if _, err := notifier.client.Emails.Send(params); err != nil {
		return fmt.Errorf("resend_verification_email_failed: %w", err)
	}

	return nil
}

func (notifier *ResendClient) verificationURL(token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", notifier.portalBaseURL, token)
}

// # Noop Implementation

// NoopNotifier discards all mail. Used in development and tests when no
// Resend API key is configured.
type NoopNotifier struct{}

func (NoopNotifier) SendWelcome(context.Context, WelcomeInput) error { return nil }

func (NoopNotifier) SendVerification(context.Context, string, string, string) error { return nil }
