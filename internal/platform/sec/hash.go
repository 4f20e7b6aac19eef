// Copyright (c) 2026 CandidHQ. All rights reserved.

/*
Package sec provides the cryptographic primitives used across Intake.

It covers password hashing, random credential generation, secure token
minting, and the HMAC-signed service credentials that guard internal-only
endpoints.

Any change to this package must be reviewed by the security team.
*/
package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain-text password using the bcrypt algorithm.
//
// The default cost is tuned so a verify takes on the order of 100ms on
// current hardware, balancing security against CPU load during signup spikes.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}
