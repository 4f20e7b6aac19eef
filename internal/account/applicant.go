// Copyright (c) 2026 CandidHQ. All rights reserved.

/*
Package account promotes a completed application session into a permanent
applicant account with generated credentials, and closes the email
verification handshake that follows.
*/
package account

import "time"

// CompletionAtCreation is the profile completion percentage every account
// starts at. The identity step is done; profile and CV stages follow in
// the applicant portal.
const CompletionAtCreation = 20

// Applicant is a promoted account row.
//
// The session token that produced the account is recorded under a unique
// constraint, so a session can be promoted at most once no matter how many
// concurrent requests race on it.
type Applicant struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`

	FirstName string `json:"firstName"`
	Surname   string `json:"surname"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Country   string `json:"country,omitempty"`
	IDNumber  string `json:"idNumber"`

	// SessionToken is the application session this account was promoted
	// from. Unique across applicants.
	SessionToken string `json:"-"`

	// VerificationToken is NULL once the email handshake closes; it is
	// never reusable after that.
	VerificationToken *string    `json:"-"`
	IsVerified        bool       `json:"isVerified"`
	EmailVerifiedAt   *time.Time `json:"emailVerifiedAt,omitempty"`

	CompletionPercentage int       `json:"completionPercentage"`
	CreatedAt            time.Time `json:"createdAt"`
}
