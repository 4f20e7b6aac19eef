// Copyright (c) 2026 CandidHQ. All rights reserved.

package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// # Extraction Provider Contract

// Result is the raw output of a document extraction provider before
// normalization.
type Result struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	IDNumber     string `json:"idNumber"`
	DateOfBirth  string `json:"dateOfBirth"`
	Nationality  string `json:"nationality"`
	DocumentType string `json:"documentType"`
	Confidence   int    `json:"confidence"`
}

// Provider turns raw document bytes into structured identity fields.
//
// Implementations are external collaborators (OCR/ML services). The
// coordinator bounds every call with a timeout; a provider must respect
// context cancellation.
type Provider interface {
	Extract(ctx context.Context, document []byte, contentType string) (*Result, error)
}

// # HTTP Provider

// HTTPProvider calls a remote OCR service over HTTP.
type HTTPProvider struct {
	endpoint string
	client   *http.Client
}

// NewHTTPProvider creates a provider posting documents to the given endpoint.
// The timeout bounds the full round-trip including body read.
func NewHTTPProvider(endpoint string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Extract posts the document bytes and decodes the provider's JSON result.
func (provider *HTTPProvider) Extract(ctx context.Context, document []byte, contentType string) (*Result, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.endpoint, bytes.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("extraction_provider_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", contentType)

	response, err := provider.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("extraction_provider_unreachable: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction_provider_bad_status: %d", response.StatusCode)
	}

	result := &Result{}
	if err := json.NewDecoder(response.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("extraction_provider_bad_payload: %w", err)
	}

	return result, nil
}

// # Stub Provider

// StubProvider returns a fixed identity payload. It is wired in
// development when no OCR endpoint is configured, so the automated path
// stays exercisable end-to-end.
type StubProvider struct{}

// Extract returns the canned development identity.
func (StubProvider) Extract(_ context.Context, _ []byte, _ string) (*Result, error) {
	return &Result{
		FirstName:    "John",
		LastName:     "Doe",
		IDNumber:     "1234567890123",
		DateOfBirth:  "1990-01-01",
		Nationality:  "South African",
		DocumentType: "ID Card",
		Confidence:   95,
	}, nil
}
