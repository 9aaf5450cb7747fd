// Package models contains the persistent row types shared by repositories
// and services.
package models

import "time"

// SecretPurpose tags the single pending one-time secret an account may hold,
// so a stale reset token can never be accepted as a verification code.
type SecretPurpose string

const (
	SecretPurposeVerify SecretPurpose = "verify"
	SecretPurposeReset  SecretPurpose = "reset"
)

// PendingSecret is the one outstanding one-time credential of an account:
// either an email verification code or a password reset token, stored as a
// hash with its expiry. Issuing a new secret overwrites and invalidates the
// previous one.
type PendingSecret struct {
	Hash      string
	Purpose   SecretPurpose
	ExpiresAt time.Time
}

// Account is one identity row. PasswordHash is a bcrypt digest and is never
// stored or logged in plaintext. Verified transitions false→true exactly
// once and never reverses.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Verified     bool
	Pending      *PendingSecret
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}
