// Copyright (c) 2026 CandidHQ. All rights reserved.

/*
Package extraction implements the identity-document extraction coordinator.

It is capability-polymorphic over two capture paths — an automated document
extraction provider (OCR/ML) and a manual-entry fallback — and normalizes
both into one [ExtractedIdentity] shape so the account promotion step never
has to care where the fields came from.

Architecture:

  - Service: File validation, provider orchestration, normalization.
  - Provider: Abstracted interface over the external OCR collaborator.
  - JobStore: Redis-backed transient status records for polling clients.

The coordinator persists nothing about the identity itself; merging it into
the session payload is the caller's responsibility.
*/
package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/candidhq/intake/internal/platform/apperr"
	"github.com/candidhq/intake/internal/platform/constants"
	"github.com/candidhq/intake/internal/platform/ctxutil"
	"github.com/candidhq/intake/internal/platform/validate"
)

// allowedExtensions is the upload whitelist. Checked before any provider
// call — a rejected file never leaves the process.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// Service implements the extraction coordinator use cases.
type Service struct {
	provider        Provider
	jobs            JobStore
	providerTimeout time.Duration
}

// NewService constructs a new extraction [Service].
func NewService(provider Provider, jobs JobStore, providerTimeout time.Duration) *Service {
	return &Service{
		provider:        provider,
		jobs:            jobs,
		providerTimeout: providerTimeout,
	}
}

// # Automated Path

// DocumentUpload describes one submitted identity document.
type DocumentUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

/*
ProcessDocument runs the automated extraction path.

Description: Validates the upload (size and extension whitelist) BEFORE
touching the provider, bounds the provider round-trip with a timeout, and
normalizes the result. A provider failure or timeout aborts the step with
a DependencyError and persists no partial identity. A best-effort job
record is written for status polling; its failure is logged only.

Parameters:
  - ctx: context.Context
  - upload: DocumentUpload

Returns:
  - *ExtractedIdentity: Normalized identity with source=automated
  - string: Job ID for status polling
  - err: UnsupportedMedia, ValidationError, or DependencyError
*/
func (service *Service) ProcessDocument(ctx context.Context, upload DocumentUpload) (*ExtractedIdentity, string, error) {

	if err := validateUpload(upload); err != nil {
		return nil, "", err
	}

	// Bound the external round-trip. A hung provider must not pin the request.
	providerCtx, cancel := context.WithTimeout(ctx, service.providerTimeout)
	defer cancel()

	jobID := uuid.NewString()

	result, err := service.provider.Extract(providerCtx, upload.Content, upload.ContentType)
	if err != nil {
		service.recordJob(ctx, &Job{
			ID:        jobID,
			Status:    JobStatusFailed,
			Progress:  100,
			Message:   "Document extraction failed",
			CreatedAt: time.Now(),
		})
		return nil, "", apperr.Dependency("Document extraction provider unavailable", err)
	}

	identity := &ExtractedIdentity{
		FirstName:    strings.TrimSpace(result.FirstName),
		LastName:     strings.TrimSpace(result.LastName),
		IDNumber:     strings.TrimSpace(result.IDNumber),
		DateOfBirth:  result.DateOfBirth,
		Nationality:  result.Nationality,
		DocumentType: result.DocumentType,
		Source:       SourceAutomated,
		Confidence:   result.Confidence,
	}

	// Mandatory fields hold regardless of source. An extraction that cannot
	// produce them is not usable and the applicant falls back to manual entry.
	if err := validateMandatory(identity); err != nil {
		return nil, "", err
	}

	service.recordJob(ctx, &Job{
		ID:         jobID,
		Status:     JobStatusCompleted,
		Progress:   100,
		Message:    "Document processing completed",
		Confidence: identity.Confidence,
		CreatedAt:  time.Now(),
	})

	return identity, jobID, nil
}

// # Manual Path

// ManualInput holds the applicant-typed fallback fields.
type ManualInput struct {
	FirstName   string
	LastName    string
	IDNumber    string
	DateOfBirth string
	Nationality string
}

/*
ManualEntry runs the manual-entry fallback path.

Description: Validates the mandatory triple (firstName, lastName,
idNumber) and normalizes into the same shape as the automated path with
confidence fixed at [ManualConfidence]. Performs no persistence and no
session mutation.

Parameters:
  - ctx: context.Context
  - input: ManualInput

Returns:
  - *ExtractedIdentity: Normalized identity with source=manual
  - err: ValidationError on missing mandatory fields
*/
func (service *Service) ManualEntry(_ context.Context, input ManualInput) (*ExtractedIdentity, error) {

	validator := &validate.Validator{}
	validator.Required("firstName", input.FirstName).
		Required("lastName", input.LastName).
		Required("idNumber", input.IDNumber)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	return &ExtractedIdentity{
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		IDNumber:    strings.TrimSpace(input.IDNumber),
		DateOfBirth: input.DateOfBirth,
		Nationality: input.Nationality,
		Source:      SourceManual,
		Confidence:  ManualConfidence,
	}, nil
}

// # Status Polling

/*
JobStatus retrieves the transient status record for an extraction job.

Parameters:
  - ctx: context.Context
  - jobID: string

Returns:
  - *Job: The status record
  - err: apperr.NotFound for unknown or aged-out jobs
*/
func (service *Service) JobStatus(ctx context.Context, jobID string) (*Job, error) {
	if jobID == "" {
		return nil, validate.RequiredError("jobId", "is required")
	}
	return service.jobs.Find(ctx, jobID)
}

// # Helpers

// validateUpload enforces the size bound and extension whitelist.
func validateUpload(upload DocumentUpload) error {
	if len(upload.Content) == 0 {
		return apperr.ValidationError("No ID document uploaded")
	}

	if upload.Size > constants.MaxDocumentBytes || int64(len(upload.Content)) > constants.MaxDocumentBytes {
		return apperr.UnsupportedMedia(
			fmt.Sprintf("Document exceeds the %dMB size limit", constants.MaxDocumentBytes>>20),
		)
	}

	extension := strings.ToLower(filepath.Ext(upload.Filename))
	if !allowedExtensions[extension] {
		return apperr.UnsupportedMedia("Only image and document files are allowed (jpg, jpeg, png, pdf, doc, docx)")
	}

	return nil
}

// validateMandatory enforces the cross-source mandatory field invariant.
func validateMandatory(identity *ExtractedIdentity) error {
	validator := &validate.Validator{}
	validator.Required("firstName", identity.FirstName).
		Required("lastName", identity.LastName).
		Required("idNumber", identity.IDNumber)
	return validator.Err()
}

// recordJob writes a best-effort status record. Failures are logged and
// never surface to the applicant — the extraction result is already decided.
func (service *Service) recordJob(ctx context.Context, job *Job) {
	if err := service.jobs.Save(ctx, job); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "extraction_job_record_failed",
			slog.String("job_id", job.ID),
			slog.Any("error", err),
		)
	}
}
