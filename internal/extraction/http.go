// Copyright (c) 2026 CandidHQ. All rights reserved.

package extraction

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/candidhq/intake/internal/platform/apperr"
	"github.com/candidhq/intake/internal/platform/constants"
	requestutil "github.com/candidhq/intake/internal/platform/request"
	"github.com/candidhq/intake/internal/platform/respond"
	"github.com/candidhq/intake/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the document-processing HTTP endpoints.
type Handler struct {
	extractionService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{extractionService: service}
}

// Routes returns a [chi.Router] configured with document routes.
//
// # Endpoints
//   - POST /process-id                 : Automated extraction from an upload.
//   - POST /manual-entry               : Manual fallback entry.
//   - GET  /extraction-status/{jobID}  : Poll a processing job.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/process-id", handler.processID)
	router.Post("/manual-entry", handler.manualEntry)
	router.Get("/extraction-status/{jobID}", handler.extractionStatus)

	return router
}

// # Request Payloads

type manualEntryRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	IDNumber    string `json:"idNumber"`
	DateOfBirth string `json:"dateOfBirth"`
	Nationality string `json:"nationality"`
}

/*
ProcessID runs the automated extraction path on an uploaded document.

POST /api/documents/process-id

Description: Accepts a multipart upload in the idDocument field, enforces
the 10MB bound at the transport layer, and delegates validation plus
extraction to the coordinator.

Request:
  - Multipart: idDocument (jpg, jpeg, png, pdf, doc, docx; max 10MB)

Response:
  - 200: extractedData + confidence + jobId
  - 400: Missing file or unsupported media
  - 502: Extraction provider unreachable or timed out
*/
func (handler *Handler) processID(writer http.ResponseWriter, request *http.Request) {

	// Reject oversized bodies while they stream in, before buffering.
	request.Body = http.MaxBytesReader(writer, request.Body, constants.MaxDocumentBytes+1024)

	if err := request.ParseMultipartForm(constants.MaxDocumentBytes); err != nil {
		respond.Error(writer, request, apperr.UnsupportedMedia("Document exceeds the 10MB size limit"))
		return
	}

	file, header, err := request.FormFile(constants.DocumentFieldName)
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("No ID document uploaded"))
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	identity, jobID, err := handler.extractionService.ProcessDocument(request.Context(), DocumentUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     content,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"extractedData": identity,
		"confidence":    identity.Confidence,
		"jobId":         jobID,
	})
}

/*
ManualEntry accepts the typed fallback fields.

POST /api/documents/manual-entry

Request:
  - Body: manualEntryRequest (FirstName, LastName, IDNumber, DateOfBirth, Nationality)

Response:
  - 200: Normalized identity with source=manual
  - 400: Missing mandatory field
*/
func (handler *Handler) manualEntry(writer http.ResponseWriter, request *http.Request) {
	var input manualEntryRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	identity, err := handler.extractionService.ManualEntry(request.Context(), ManualInput{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		IDNumber:    input.IDNumber,
		DateOfBirth: input.DateOfBirth,
		Nationality: input.Nationality,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"data": identity})
}

/*
ExtractionStatus polls a document processing job.

GET /api/documents/extraction-status/{jobID}

Response:
  - 200: Job status record
  - 404: Unknown or aged-out job
*/
func (handler *Handler) extractionStatus(writer http.ResponseWriter, request *http.Request) {
	jobID := requestutil.Param(request, "jobID")

	job, err := handler.extractionService.JobStatus(request.Context(), jobID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"job": job})
}
