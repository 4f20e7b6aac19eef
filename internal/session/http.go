// Copyright (c) 2026 CandidHQ. All rights reserved.

package session

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/candidhq/intake/internal/platform/request"
	"github.com/candidhq/intake/internal/platform/respond"
	"github.com/candidhq/intake/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the pre-application HTTP endpoints.
//
// # Scope
//
// Everything under /pre-application: session lifecycle plus the
// internal-only cleanup trigger.
type Handler struct {
	sessionService *Service
	cleanupGuard   func(http.Handler) http.Handler
}

// NewHandler constructs a new [Handler].
//
// cleanupGuard is the middleware that authenticates internal service
// callers of the cleanup route.
func NewHandler(service *Service, cleanupGuard func(http.Handler) http.Handler) *Handler {
	return &Handler{sessionService: service, cleanupGuard: cleanupGuard}
}

// Routes returns a [chi.Router] configured with session-specific routes.
//
// # Endpoints
//   - POST   /start            : Opens a session once agreements are accepted.
//   - GET    /session/{token}  : Reads the session projection.
//   - PUT    /session/{token}  : Advances payload and step.
//   - DELETE /session/{token}  : Discards a session.
//   - GET    /cleanup          : Purges expired sessions (service credential required).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/start", handler.start)
	router.Get("/session/{token}", handler.get)
	router.Put("/session/{token}", handler.update)
	router.Delete("/session/{token}", handler.delete)

	// Internal endpoints
	router.Group(func(r chi.Router) {
		r.Use(handler.cleanupGuard)
		r.Get("/cleanup", handler.cleanup)
	})

	return router
}

// # Request Payloads

type startRequest struct {
	Timestamp              string `json:"timestamp"`
	AgreedToTerms          bool   `json:"agreedToTerms"`
	AgreedToDataProtection bool   `json:"agreedToDataProtection"`
	AgreedToPrivacy        bool   `json:"agreedToPrivacy"`
}

type updateRequest struct {
	Data          map[string]any `json:"data"`
	StepCompleted int            `json:"stepCompleted"`
}

/*
Start opens a new application session.

POST /api/pre-application/start

Description: Validates the agreement triple and creates a 24h session.

Request:
  - Body: startRequest (Timestamp, AgreedToTerms, AgreedToDataProtection, AgreedToPrivacy)

Response:
  - 201: Session token, id, and expiry
  - 400: ErrInvalidJSON: Missing agreement or bad input
*/
func (handler *Handler) start(writer http.ResponseWriter, request *http.Request) {
	var input startRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	session, err := handler.sessionService.Create(request.Context(), CreateInput{
		Timestamp:              input.Timestamp,
		AgreedToTerms:          input.AgreedToTerms,
		AgreedToDataProtection: input.AgreedToDataProtection,
		AgreedToPrivacy:        input.AgreedToPrivacy,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]any{
		"sessionToken": session.Token,
		"sessionId":    session.ID,
		"expiresAt":    session.ExpiresAt,
	})
}

/*
Get reads an unexpired session projection.

GET /api/pre-application/session/{token}

Response:
  - 200: Session projection
  - 404: Unknown or expired token
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Param(request, "token")

	session, err := handler.sessionService.Get(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"session": session})
}

/*
Update advances a session's payload and progress marker.

PUT /api/pre-application/session/{token}

Request:
  - Body: updateRequest (Data, StepCompleted)

Response:
  - 200: Updated session projection
  - 400: Step out of range or regressing
  - 404: Unknown or expired token
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Param(request, "token")

	var input updateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	session, err := handler.sessionService.Update(request.Context(), token, input.Data, input.StepCompleted)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"session": session})
}

/*
Delete discards a session.

DELETE /api/pre-application/session/{token}

Response:
  - 204: Session deleted
  - 404: Unknown token
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Param(request, "token")

	if err := handler.sessionService.Delete(request.Context(), token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Cleanup purges expired sessions.

GET /api/pre-application/cleanup

Description: Internal-only; the route group is wrapped by the ServiceAuth
middleware so callers need an HMAC service credential.

Response:
  - 200: Count of removed sessions
  - 401: Missing or invalid service credential
*/
func (handler *Handler) cleanup(writer http.ResponseWriter, request *http.Request) {
	deleted, err := handler.sessionService.CleanupExpired(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"message": fmt.Sprintf("Cleaned up %d expired sessions", deleted),
		"deleted": deleted,
	})
}
