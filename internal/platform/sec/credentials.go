// Copyright (c) 2026 CandidHQ. All rights reserved.

package sec

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// # Generated Credentials

const (
	// PasswordAlphabet is the fixed 70-character charset for generated
	// passwords: 26 uppercase + 26 lowercase + 10 digits + 8 symbols.
	PasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"

	// GeneratedPasswordLength is the length of one-time passwords issued
	// at account promotion.
	GeneratedPasswordLength = 12
)

// GeneratePassword produces a random password of [GeneratedPasswordLength]
// characters, each drawn independently and uniformly from [PasswordAlphabet]
// using crypto/rand.
func GeneratePassword() (string, error) {
	alphabetSize := big.NewInt(int64(len(PasswordAlphabet)))
	password := make([]byte, GeneratedPasswordLength)

	for i := range password {
		// rand.Int is uniform over [0, alphabetSize) with no modulo bias.
		index, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("sec: failed to generate password: %w", err)
		}
		password[i] = PasswordAlphabet[index.Int64()]
	}

	return string(password), nil
}

// GenerateSuffix returns a zero-padded numeric string of the given width,
// drawn uniformly from [0, 10^width). Used as the username disambiguator.
func GenerateSuffix(width int) (string, error) {
	bound := big.NewInt(1)
	for i := 0; i < width; i++ {
		bound.Mul(bound, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", fmt.Errorf("sec: failed to generate suffix: %w", err)
	}

	return fmt.Sprintf("%0*d", width, n.Int64()), nil
}

// GenerateSecureToken returns a hex-encoded random token of byteLength
// random bytes (so the string is twice as long).
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(buffer), nil
}
