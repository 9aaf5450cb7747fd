// Package common defines shared constants and sentinel errors used across
// the threatlens server layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateIdentity = errors.New("account with this email already exists")

	// Validation errors.
	ErrMissingFields = errors.New("all input is required")

	// Credential and one-time secret errors. ErrInvalidCredentials covers
	// both an unknown email and a wrong password so a caller cannot probe
	// which accounts exist.
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredCode  = errors.New("invalid or expired verification code")
	ErrInvalidOrExpiredToken = errors.New("password reset token is invalid or has expired")

	// Session lifecycle errors.
	ErrInvalidSession = errors.New("invalid session token")
	ErrSessionExpired = errors.New("session expired")
	ErrSessionRevoked = errors.New("session invalidated by server restart")

	// Unexpected persistence/codec faults are logged and collapsed into
	// this generic error before reaching the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
