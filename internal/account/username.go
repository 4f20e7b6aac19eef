// Copyright (c) 2026 CandidHQ. All rights reserved.

package account

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/candidhq/intake/internal/platform/sec"
)

// suffixDigits is the width of the numeric disambiguator appended to every
// generated username.
const suffixDigits = 3

/*
GenerateUsername derives a login name from the applicant's legal names.

Description: Folds both names to lowercase ASCII letters (NFD
decomposition strips accents: "Müller" → "muller", "José" → "jose"),
concatenates them, and appends a zero-padded random 3-digit suffix. The
result always matches ^[a-z]+\d{3}$.

Parameters:
  - firstName: string
  - surname: string

Returns:
  - string: Candidate username (collisions are resolved by the caller
    retrying with a fresh suffix)
  - error: When both names fold to nothing, or entropy is unavailable
*/
func GenerateUsername(firstName, surname string) (string, error) {
	base := foldToLetters(firstName) + foldToLetters(surname)
	if base == "" {
		return "", fmt.Errorf("username_base_empty: names contain no foldable letters")
	}

	suffix, err := sec.GenerateSuffix(suffixDigits)
	if err != nil {
		return "", fmt.Errorf("username_suffix_failed: %w", err)
	}

	return base + suffix, nil
}

// foldToLetters lowercases s and strips everything outside a-z, removing
// accents first so "é" survives as "e" rather than vanishing.
func foldToLetters(s string) string {
	decomposed, _, _ := transform.String(transform.Chain(norm.NFD, transform.RemoveFunc(isMn)), s)

	var builder strings.Builder
	for _, r := range strings.ToLower(decomposed) {
		if r >= 'a' && r <= 'z' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
