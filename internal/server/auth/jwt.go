// Package auth implements the token codec: signed bearer sessions and the
// one-time secrets (verification codes, reset tokens) with their at-rest
// hashes.
package auth

import (
	"fmt"
	"time"

	"github.com/dberezins/threatlens/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the account identity inside a signed session token.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"uid"`
	Email     string `json:"email"`
}

// Session is a verified bearer session.
type Session struct {
	AccountID string
	Email     string
	IssuedAt  time.Time
}

// Sessions issues and verifies HS256-signed bearer sessions. The signing
// key, the validity window and the process epoch are fixed at construction
// and never mutated, so Issue and Verify are safe for concurrent use.
//
// Tokens carry only an issued-at claim. The validity window is enforced by
// Verify rather than baked into an exp claim, which lets the epoch check
// override any token-internal state: a restart invalidates every previously
// issued session without a revocation list.
type Sessions struct {
	secret   []byte
	validity time.Duration
	epoch    time.Time
}

func NewSessions(secret []byte, validity time.Duration, epoch time.Time) *Sessions {
	return &Sessions{secret: secret, validity: validity, epoch: epoch}
}

// Issue signs a session for the account, stamped with now.
func (s *Sessions) Issue(accountID, email string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
		AccountID: accountID,
		Email:     email,
	})

	return token.SignedString(s.secret)
}

// Verify checks signature, validity window and process epoch. A session
// issued at T is accepted for T <= now < T+validity, and only if T is not
// before the epoch.
func (s *Sessions) Verify(tokenString string, now time.Time) (*Session, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidSession
	}
	if claims.IssuedAt == nil {
		return nil, common.ErrInvalidSession
	}

	issued := claims.IssuedAt.Time
	if now.Before(issued) {
		return nil, common.ErrInvalidSession
	}
	if now.Sub(issued) >= s.validity {
		return nil, common.ErrSessionExpired
	}
	if issued.Before(s.epoch) {
		return nil, common.ErrSessionRevoked
	}

	return &Session{AccountID: claims.AccountID, Email: claims.Email, IssuedAt: issued}, nil
}
