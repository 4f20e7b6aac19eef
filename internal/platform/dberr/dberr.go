// Copyright (c) 2026 CandidHQ. All rights reserved.

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/candidhq/intake/internal/platform/apperr"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// # Classification
//
//   - pgx.ErrNoRows            → NOT_FOUND for the named resource
//   - SQLSTATE 23505 (unique)  → CONFLICT (caller may retry with a new derivation)
//   - connection failures      → DEPENDENCY_ERROR (retryable)
//   - anything else            → INTERNAL_ERROR
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		if pgError.Code == pgerrcode.UniqueViolation {
			conflict := apperr.Conflict(resource + " already exists")
			conflict.Cause = err
			return conflict
		}
	}

	if pgconn.Timeout(err) {
		return apperr.Dependency("Datastore timed out", err)
	}

	return apperr.Internal(err)
}

// UniqueConstraint returns the name of the violated unique constraint, or ""
// if err is not a unique violation. Promotion uses this to tell a username
// collision (retryable with a new suffix) from a session-token collision
// (the session was already promoted).
func UniqueConstraint(err error) string {
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation {
		return pgError.ConstraintName
	}
	return ""
}
