// Copyright (c) 2026 CandidHQ. All rights reserved.

package extraction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candidhq/intake/internal/extraction"
	"github.com/candidhq/intake/internal/platform/apperr"
)

// fakeProvider records whether it was invoked and returns a canned result
// or a configured error.
type fakeProvider struct {
	called bool
	result *extraction.Result
	err    error
}

func (provider *fakeProvider) Extract(_ context.Context, _ []byte, _ string) (*extraction.Result, error) {
	provider.called = true
	if provider.err != nil {
		return nil, provider.err
	}
	return provider.result, nil
}

// fakeJobStore is an in-memory [extraction.JobStore].
type fakeJobStore struct {
	jobs map[string]*extraction.Job
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: make(map[string]*extraction.Job)}
}

func (store *fakeJobStore) Save(_ context.Context, job *extraction.Job) error {
	store.jobs[job.ID] = job
	return nil
}

func (store *fakeJobStore) Find(_ context.Context, jobID string) (*extraction.Job, error) {
	job, ok := store.jobs[jobID]
	if !ok {
		return nil, apperr.NotFound("Extraction job")
	}
	return job, nil
}

func goodResult() *extraction.Result {
	return &extraction.Result{
		FirstName:    "Jane",
		LastName:     "Doe",
		IDNumber:     "9001011234567",
		DateOfBirth:  "1990-01-01",
		Nationality:  "South African",
		DocumentType: "ID Card",
		Confidence:   87,
	}
}

func validUpload() extraction.DocumentUpload {
	return extraction.DocumentUpload{
		Filename:    "id-card.jpg",
		ContentType: "image/jpeg",
		Size:        2048,
		Content:     make([]byte, 2048),
	}
}

/*
TestProcessDocument_Normalization verifies the automated path produces the
uniform identity shape with the provider's confidence surfaced as-is.
*/
func TestProcessDocument_Normalization(t *testing.T) {
	provider := &fakeProvider{result: goodResult()}
	jobs := newFakeJobStore()
	service := extraction.NewService(provider, jobs, time.Second)

	identity, jobID, err := service.ProcessDocument(context.Background(), validUpload())
	require.NoError(t, err)

	assert.Equal(t, extraction.SourceAutomated, identity.Source)
	assert.Equal(t, "Jane", identity.FirstName)
	assert.Equal(t, "Doe", identity.LastName)
	assert.Equal(t, "9001011234567", identity.IDNumber)
	assert.Equal(t, 87, identity.Confidence)

	// A completed job record is queryable afterwards.
	job, err := service.JobStatus(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, extraction.JobStatusCompleted, job.Status)
	assert.Equal(t, 87, job.Confidence)
}

/*
TestProcessDocument_LowConfidenceIsAccepted pins the policy that confidence
is informational only: even a very low score is surfaced, not rejected.
*/
func TestProcessDocument_LowConfidenceIsAccepted(t *testing.T) {
	result := goodResult()
	result.Confidence = 5
	service := extraction.NewService(&fakeProvider{result: result}, newFakeJobStore(), time.Second)

	identity, _, err := service.ProcessDocument(context.Background(), validUpload())
	require.NoError(t, err)
	assert.Equal(t, 5, identity.Confidence)
}

/*
TestProcessDocument_UploadValidation verifies rejected files never reach
the provider.
*/
func TestProcessDocument_UploadValidation(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*extraction.DocumentUpload)
		expectedCode string
	}{
		{
			name: "oversized_file",
			mutate: func(u *extraction.DocumentUpload) {
				u.Size = 11 << 20
			},
			expectedCode: "UNSUPPORTED_MEDIA",
		},
		{
			name: "wrong_extension",
			mutate: func(u *extraction.DocumentUpload) {
				u.Filename = "malware.exe"
			},
			expectedCode: "UNSUPPORTED_MEDIA",
		},
		{
			name: "no_extension",
			mutate: func(u *extraction.DocumentUpload) {
				u.Filename = "document"
			},
			expectedCode: "UNSUPPORTED_MEDIA",
		},
		{
			name: "empty_file",
			mutate: func(u *extraction.DocumentUpload) {
				u.Content = nil
			},
			expectedCode: "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{result: goodResult()}
			service := extraction.NewService(provider, newFakeJobStore(), time.Second)

			upload := validUpload()
			tt.mutate(&upload)

			_, _, err := service.ProcessDocument(context.Background(), upload)
			require.Error(t, err)
			assert.True(t, apperr.IsCode(err, tt.expectedCode), "got %v", err)
			assert.False(t, provider.called, "provider must not be invoked for a rejected upload")
		})
	}
}

/*
TestProcessDocument_ProviderFailure verifies provider errors surface as
DependencyError with no identity produced.
*/
func TestProcessDocument_ProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	jobs := newFakeJobStore()
	service := extraction.NewService(provider, jobs, time.Second)

	identity, _, err := service.ProcessDocument(context.Background(), validUpload())
	require.Error(t, err)
	assert.Nil(t, identity)
	assert.True(t, apperr.IsCode(err, "DEPENDENCY_ERROR"))

	// The failure is still visible to polling clients.
	require.Len(t, jobs.jobs, 1)
	for _, job := range jobs.jobs {
		assert.Equal(t, extraction.JobStatusFailed, job.Status)
	}
}

/*
TestProcessDocument_MissingMandatoryFields verifies an extraction without
the mandatory triple is unusable.
*/
func TestProcessDocument_MissingMandatoryFields(t *testing.T) {
	result := goodResult()
	result.IDNumber = ""
	service := extraction.NewService(&fakeProvider{result: result}, newFakeJobStore(), time.Second)

	_, _, err := service.ProcessDocument(context.Background(), validUpload())
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
}

/*
TestManualEntry covers the fallback path: normalization, fixed confidence,
and mandatory field enforcement.
*/
func TestManualEntry(t *testing.T) {
	service := extraction.NewService(&fakeProvider{}, newFakeJobStore(), time.Second)

	t.Run("normalizes_with_full_confidence", func(t *testing.T) {
		identity, err := service.ManualEntry(context.Background(), extraction.ManualInput{
			FirstName:   "  Jane ",
			LastName:    "Doe",
			IDNumber:    "9001011234567",
			DateOfBirth: "1990-01-01",
			Nationality: "South African",
		})
		require.NoError(t, err)

		assert.Equal(t, extraction.SourceManual, identity.Source)
		assert.Equal(t, extraction.ManualConfidence, identity.Confidence)
		assert.Equal(t, "Jane", identity.FirstName)
	})

	t.Run("rejects_missing_id_number", func(t *testing.T) {
		_, err := service.ManualEntry(context.Background(), extraction.ManualInput{
			FirstName: "Jane",
			LastName:  "Doe",
		})
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "VALIDATION_ERROR", ae.Code)
		require.Len(t, ae.Details, 1)
		assert.Equal(t, "idNumber", ae.Details[0].Field)
	})

	t.Run("rejects_all_missing", func(t *testing.T) {
		_, err := service.ManualEntry(context.Background(), extraction.ManualInput{})
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Len(t, ae.Details, 3)
	})
}

/*
TestJobStatus covers polling for unknown jobs.
*/
func TestJobStatus(t *testing.T) {
	service := extraction.NewService(&fakeProvider{}, newFakeJobStore(), time.Second)

	_, err := service.JobStatus(context.Background(), "missing-job")
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))

	_, err = service.JobStatus(context.Background(), "")
	assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
}
