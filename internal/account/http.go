// Copyright (c) 2026 CandidHQ. All rights reserved.

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/candidhq/intake/internal/platform/request"
	"github.com/candidhq/intake/internal/platform/respond"
	"github.com/candidhq/intake/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the account HTTP endpoints.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with account-specific routes.
//
// # Endpoints
//   - POST /create-from-session  : Promotes a session into an account.
//   - POST /verify-email         : Closes the email verification handshake.
//   - POST /resend-verification  : Rotates and re-mails the verification link.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/create-from-session", handler.createFromSession)
	router.Post("/verify-email", handler.verifyEmail)
	router.Post("/resend-verification", handler.resendVerification)

	return router
}

// # Request Payloads

type verifyEmailRequest struct {
	Token string `json:"token"`
}

type resendVerificationRequest struct {
	Email string `json:"email"`
}

/*
CreateFromSession promotes an application session into an applicant account.

POST /api/account/create-from-session

Description: Exactly-once per session. The response is the only place the
generated plaintext password ever appears.

Request:
  - Body: PromoteInput (sessionToken, firstName, surname, idNumber, email, phone, country)

Response:
  - 201: Account id, username, one-time password, email, verification token
  - 400: Validation failure
  - 404: Unknown or expired session
  - 409: Session already promoted
*/
func (handler *Handler) createFromSession(writer http.ResponseWriter, request *http.Request) {
	var input PromoteInput

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	result, err := handler.accountService.Promote(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, result)
}

/*
VerifyEmail closes the email verification handshake.

POST /api/account/verify-email

Description: One-time-use. Replays and unknown tokens fail identically.

Request:
  - Body: verifyEmailRequest (token)

Response:
  - 200: Confirmation message
  - 400: Missing, unknown, or already-used token
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	var input verifyEmailRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := handler.accountService.Verify(request.Context(), input.Token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"message": "Email verified successfully",
	})
}

/*
ResendVerification rotates and re-mails the verification link.

POST /api/account/resend-verification

Request:
  - Body: resendVerificationRequest (email)

Response:
  - 200: Confirmation message
  - 400: Missing or malformed email
  - 404: No unverified account holds the address
  - 502: Mail provider failure
*/
func (handler *Handler) resendVerification(writer http.ResponseWriter, request *http.Request) {
	var input resendVerificationRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := handler.accountService.ResendVerification(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"message": "Verification email sent",
	})
}
