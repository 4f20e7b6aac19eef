// Copyright (c) 2026 CandidHQ. All rights reserved.

package session

import "time"

// # Session Constraints

const (
	// TTL is the fixed lifetime of an application session. The expiry is
	// computed once at creation and never extended.
	TTL = 24 * time.Hour

	// MaxStep is the highest step number the onboarding flow defines.
	// Steps beyond the identity/promotion flow are reserved for the
	// profile and CV stages served by other systems.
	MaxStep = 8
)

// ApplicationSession is one in-progress onboarding application.
//
// # Capability Model
//
// The token is a bearer capability: whoever holds it may read and advance
// the session. It is not a user identity — an account only exists after
// promotion.
type ApplicationSession struct {
	// ID is the store-assigned row identifier.
	ID int64 `json:"id"`

	// Token is the opaque 128-bit client-facing handle.
	Token string `json:"token"`

	// Data is the opaque per-step payload merged by the client as the
	// flow advances. The core validates JSON shape only.
	Data map[string]any `json:"data"`

	// StepCompleted is the monotonically non-decreasing progress marker.
	// 0 means the session was just created (agreements accepted).
	StepCompleted int `json:"stepCompleted"`

	// ExpiresAt is fixed at CreatedAt + TTL. A session past this instant
	// behaves as not found everywhere.
	ExpiresAt time.Time `json:"expiresAt"`

	CreatedAt time.Time `json:"createdAt"`
}

// Agreements records the legal acceptances that gate session creation.
// All three must be true for a session to exist at all.
type Agreements struct {
	Terms          bool   `json:"terms"`
	DataProtection bool   `json:"dataProtection"`
	Privacy        bool   `json:"privacy"`
	Timestamp      string `json:"timestamp"`
}
