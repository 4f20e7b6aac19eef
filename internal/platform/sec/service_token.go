// Copyright (c) 2026 CandidHQ. All rights reserved.

package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceClaims represents the payload embedded inside an internal service
// credential.
//
// # Why JWTs for internal calls?
//
// Administrative endpoints (like session cleanup) are triggered by internal
// schedulers, not by applicants. A short-lived HMAC-signed token lets the
// scheduler authenticate without the API holding any caller state, and a
// leaked token ages out on its own.
type ServiceClaims struct {
	jwt.RegisteredClaims

	// Scope names the internal capability this credential grants (e.g.
	// "sessions:cleanup").
	Scope string `json:"scp"`
}

// ServiceTokenVerifier verifies HMAC-signed service credentials.
type ServiceTokenVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewServiceTokenVerifier creates a verifier bound to the shared secret,
// expected issuer, and expected audience.
func NewServiceTokenVerifier(secret, issuer, audience string) *ServiceTokenVerifier {
	return &ServiceTokenVerifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

// SignServiceToken mints a service credential for the given scope. It exists
// primarily for internal tooling and tests; production schedulers sign their
// own tokens with the shared secret.
func (verifier *ServiceTokenVerifier) SignServiceToken(scope string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    verifier.issuer,
			Audience:  jwt.ClaimStrings{verifier.audience},
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		Scope: scope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(verifier.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign service token: %w", err)
	}

	return signedToken, nil
}

// VerifyServiceToken checks the signature, expiry, issuer, and audience of a
// service credential and returns its claims.
func (verifier *ServiceTokenVerifier) VerifyServiceToken(tokenString string) (*ServiceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
			}
			return verifier.secret, nil
		},
		jwt.WithIssuer(verifier.issuer),
		jwt.WithAudience(verifier.audience),
	)

	if err != nil {
		return nil, fmt.Errorf("sec: invalid service token: %w", err)
	}

	claims, ok := token.Claims.(*ServiceClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid service token claims")
	}

	return claims, nil
}
