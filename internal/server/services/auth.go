// Package services implements the application flows on top of the
// repositories: the account/session lifecycle and the scan operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dberezins/threatlens/internal/common"
	"github.com/dberezins/threatlens/internal/dbx"
	"github.com/dberezins/threatlens/internal/logging"
	"github.com/dberezins/threatlens/internal/server/auth"
	"github.com/dberezins/threatlens/internal/server/config"
	"github.com/dberezins/threatlens/internal/server/models"
	"github.com/dberezins/threatlens/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Mailer delivers account notifications. A failed send is logged and never
// rolls back account state that was already committed.
type Mailer interface {
	SendVerificationCode(ctx context.Context, name, to, code string) error
	SendPasswordResetLink(ctx context.Context, to, resetLink string) error
}

// AuthService drives registration, verification, login and password reset.
type AuthService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	sessions      *auth.Sessions
	mailer        Mailer
	logger        logging.Logger
	codeTTL       time.Duration
	resetTTL      time.Duration
	resetLinkBase string
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, sessions *auth.Sessions,
	mailer Mailer, logger logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:            db,
		repomanager:   m,
		sessions:      sessions,
		mailer:        mailer,
		logger:        logger.With("module", "auth_service"),
		codeTTL:       cfg.VerificationCodeTTL,
		resetTTL:      cfg.ResetTokenTTL,
		resetLinkBase: cfg.ResetLinkBase,
	}
}

// Register creates an unverified account holding a hashed short-lived
// verification code and mails the plaintext code. The email send is
// fire-and-forget: the account is committed either way.
func (s *AuthService) Register(ctx context.Context, name, email, password string) error {

	if name == "" || email == "" || password == "" {
		return common.ErrMissingFields
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return s.fault(ctx, "hash password", err)
	}

	code, err := auth.GenerateVerificationCode()
	if err != nil {
		return s.fault(ctx, "generate code", err)
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Pending: &models.PendingSecret{
			Hash:      auth.HashSecret(code),
			Purpose:   models.SecretPurposeVerify,
			ExpiresAt: time.Now().Add(s.codeTTL),
		},
	}

	repo := s.repomanager.Accounts(s.db)
	if _, err := repo.Create(ctx, account); err != nil {
		if errors.Is(err, common.ErrDuplicateIdentity) {
			return common.ErrDuplicateIdentity
		}
		return s.fault(ctx, "create account", err)
	}

	s.sendCodeAsync(ctx, name, email, code)

	return nil
}

// Login checks credentials and issues a bearer session stamped with the
// current time. Verification state deliberately does not gate login; the
// same error covers unknown emails and wrong passwords.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {

	if email == "" || password == "" {
		return "", common.ErrMissingFields
	}

	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", s.fault(ctx, "find account", err)
	}

	if !auth.CheckPassword(account.PasswordHash, password) {
		return "", common.ErrInvalidCredentials
	}

	now := time.Now()
	if err := repo.TouchLastLogin(ctx, account.ID, now); err != nil {
		return "", s.fault(ctx, "touch last login", err)
	}

	token, err := s.sessions.Issue(account.ID, account.Email, now)
	if err != nil {
		return "", s.fault(ctx, "issue session", err)
	}

	return token, nil
}

// VerifyEmail consumes the pending verification code and marks the account
// verified. The consume and the flag update run in one transaction; the
// conditional consume guarantees a code is accepted at most once.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {

	if email == "" || code == "" {
		return common.ErrInvalidOrExpiredCode
	}

	hash := auth.HashSecret(code)
	now := time.Now()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		account, err := repo.ConsumeVerificationCode(ctx, email, hash, now)
		if err != nil {
			return err
		}

		return repo.SetVerified(ctx, account.ID)
	})

	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidOrExpiredCode
		}
		return s.fault(ctx, "verify email", err)
	}

	return nil
}

// ResendCode issues a fresh verification code, overwriting and thereby
// invalidating any previously pending secret. Unknown addresses are a
// silent no-op so the acknowledgment never reveals whether an account
// exists.
func (s *AuthService) ResendCode(ctx context.Context, email string) error {

	if email == "" {
		return common.ErrMissingFields
	}

	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return s.fault(ctx, "find account", err)
	}

	code, err := auth.GenerateVerificationCode()
	if err != nil {
		return s.fault(ctx, "generate code", err)
	}

	err = repo.SetPendingSecret(ctx, account.ID, models.PendingSecret{
		Hash:      auth.HashSecret(code),
		Purpose:   models.SecretPurposeVerify,
		ExpiresAt: time.Now().Add(s.codeTTL),
	})
	if err != nil {
		return s.fault(ctx, "store code", err)
	}

	s.sendCodeAsync(ctx, account.Name, account.Email, code)

	return nil
}

// ForgotPassword stores the hash of a fresh reset token and mails the
// plaintext token inside a link. The caller always receives the same
// generic acknowledgment whether or not the account exists; the send is
// awaited best-effort and a delivery failure is only logged.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {

	if email == "" {
		return common.ErrMissingFields
	}

	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return s.fault(ctx, "find account", err)
	}

	token, err := auth.GenerateResetToken()
	if err != nil {
		return s.fault(ctx, "generate token", err)
	}

	err = repo.SetPendingSecret(ctx, account.ID, models.PendingSecret{
		Hash:      auth.HashSecret(token),
		Purpose:   models.SecretPurposeReset,
		ExpiresAt: time.Now().Add(s.resetTTL),
	})
	if err != nil {
		return s.fault(ctx, "store token", err)
	}

	link := s.resetLinkBase + "/" + token
	if err := s.mailer.SendPasswordResetLink(ctx, account.Email, link); err != nil {
		s.logger.Error(ctx, "reset email delivery failed", "error", err.Error())
	}

	return nil
}

// ResetPassword consumes the reset token and replaces the password hash in
// one transaction. A consumed, expired or unknown token fails identically;
// a second attempt with the same token always fails.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {

	if token == "" || newPassword == "" {
		return common.ErrMissingFields
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return s.fault(ctx, "hash password", err)
	}

	hash := auth.HashSecret(token)
	now := time.Now()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		account, err := repo.ConsumeResetToken(ctx, hash, now)
		if err != nil {
			return err
		}

		return repo.UpdatePasswordHash(ctx, account.ID, passwordHash)
	})

	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidOrExpiredToken
		}
		return s.fault(ctx, "reset password", err)
	}

	return nil
}

// Profile returns the account row for an authenticated session.
func (s *AuthService) Profile(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, s.fault(ctx, "load profile", err)
	}
	return account, nil
}

// UpdateProfile changes the display name and email address.
func (s *AuthService) UpdateProfile(ctx context.Context, accountID, name, email string) error {
	if name == "" || email == "" {
		return common.ErrMissingFields
	}

	err := s.repomanager.Accounts(s.db).UpdateProfile(ctx, accountID, name, email)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentity) || errors.Is(err, common.ErrNotFound) {
			return err
		}
		return s.fault(ctx, "update profile", err)
	}
	return nil
}

func (s *AuthService) sendCodeAsync(ctx context.Context, name, email, code string) {
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := s.mailer.SendVerificationCode(sendCtx, name, email, code); err != nil {
			s.logger.Error(sendCtx, "verification email delivery failed", "error", err.Error())
		}
	}()
}

// fault logs an unexpected storage or codec failure and hides the detail
// behind a generic error.
func (s *AuthService) fault(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, "unexpected failure", "op", op, "error", err.Error())
	return common.ErrStorageUnavailable
}
