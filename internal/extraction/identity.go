// Copyright (c) 2026 CandidHQ. All rights reserved.

package extraction

// # Identity Model

// Source distinguishes how an identity was captured.
type Source string

const (
	// SourceAutomated means the fields came from the document extraction provider.
	SourceAutomated Source = "automated"

	// SourceManual means the applicant typed the fields in themselves.
	SourceManual Source = "manual"
)

// ManualConfidence is the confidence assigned to manual entries by
// convention: a human typed it, so the pipeline treats it as certain.
const ManualConfidence = 100

// ExtractedIdentity is the uniform result of both extraction paths.
//
// It is ephemeral — the coordinator never persists it. Callers merge it
// into the session payload themselves via the session update operation.
type ExtractedIdentity struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	IDNumber     string `json:"idNumber"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	Nationality  string `json:"nationality,omitempty"`
	DocumentType string `json:"documentType,omitempty"`

	// Source records which path produced the fields.
	Source Source `json:"source"`

	// Confidence is 0-100. Informational only — the pipeline surfaces it
	// but does not gate on it.
	Confidence int `json:"confidence"`
}
