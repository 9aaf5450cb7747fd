package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dberezins/threatlens/internal/common"
	"github.com/dberezins/threatlens/internal/dbx"
	"github.com/dberezins/threatlens/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, name, email, password_hash, verified,
	pending_secret_hash, pending_secret_purpose, pending_secret_expires,
	created_at, last_login_at`

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {

	query :=
		`INSERT INTO accounts (id, name, email, password_hash, verified,
		    pending_secret_hash, pending_secret_purpose, pending_secret_expires)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at
		 `

	hash, purpose, expires := pendingArgs(account.Pending)

	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.Name, account.Email, account.PasswordHash, account.Verified,
		hash, purpose, expires).Scan(&account.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, common.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) SetVerified(ctx context.Context, id string) error {
	query := `UPDATE accounts SET verified = TRUE WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) SetPendingSecret(ctx context.Context, id string, secret models.PendingSecret) error {
	query :=
		`UPDATE accounts
		 SET pending_secret_hash = $2, pending_secret_purpose = $3, pending_secret_expires = $4
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, secret.Hash, string(secret.Purpose), secret.ExpiresAt)
}

func (r *PostgresRepository) ClearPendingSecret(ctx context.Context, id string) error {
	query :=
		`UPDATE accounts
		 SET pending_secret_hash = NULL, pending_secret_purpose = NULL, pending_secret_expires = NULL
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id)
}

// ConsumeVerificationCode clears the pending slot iff the account holds an
// unexpired verification code with the given hash. common.ErrNotFound means
// no match, an expired code, or a slot already consumed by a concurrent
// request.
func (r *PostgresRepository) ConsumeVerificationCode(ctx context.Context, email, hash string, now time.Time) (*models.Account, error) {
	query :=
		`UPDATE accounts
		 SET pending_secret_hash = NULL, pending_secret_purpose = NULL, pending_secret_expires = NULL
		 WHERE email = $1 AND pending_secret_hash = $2 AND pending_secret_purpose = $3
		   AND pending_secret_expires > $4
		 RETURNING ` + accountColumns

	return r.scanAccount(r.db.QueryRowContext(ctx, query, email, hash, string(models.SecretPurposeVerify), now))
}

// ConsumeResetToken is the reset-flow counterpart of ConsumeVerificationCode;
// reset tokens carry enough entropy to be looked up by hash alone.
func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, hash string, now time.Time) (*models.Account, error) {
	query :=
		`UPDATE accounts
		 SET pending_secret_hash = NULL, pending_secret_purpose = NULL, pending_secret_expires = NULL
		 WHERE pending_secret_hash = $1 AND pending_secret_purpose = $2
		   AND pending_secret_expires > $3
		 RETURNING ` + accountColumns

	return r.scanAccount(r.db.QueryRowContext(ctx, query, hash, string(models.SecretPurposeReset), now))
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	query := `UPDATE accounts SET password_hash = $2 WHERE id = $1`
	return r.execOne(ctx, query, id, hash)
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE accounts SET last_login_at = $2 WHERE id = $1`
	return r.execOne(ctx, query, id, at)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id, name, email string) error {
	query := `UPDATE accounts SET name = $2, email = $3 WHERE id = $1`

	err := r.execOne(ctx, query, id, name, email)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return common.ErrDuplicateIdentity
		}
	}
	return err
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	var (
		pendingHash    sql.NullString
		pendingPurpose sql.NullString
		pendingExpires sql.NullTime
		lastLogin      sql.NullTime
	)

	err := row.Scan(&account.ID, &account.Name, &account.Email, &account.PasswordHash, &account.Verified,
		&pendingHash, &pendingPurpose, &pendingExpires, &account.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if pendingHash.Valid && pendingPurpose.Valid && pendingExpires.Valid {
		account.Pending = &models.PendingSecret{
			Hash:      pendingHash.String,
			Purpose:   models.SecretPurpose(pendingPurpose.String),
			ExpiresAt: pendingExpires.Time,
		}
	}
	if lastLogin.Valid {
		account.LastLoginAt = &lastLogin.Time
	}

	return account, nil
}

func pendingArgs(p *models.PendingSecret) (sql.NullString, sql.NullString, sql.NullTime) {
	if p == nil {
		return sql.NullString{}, sql.NullString{}, sql.NullTime{}
	}
	return sql.NullString{String: p.Hash, Valid: true},
		sql.NullString{String: string(p.Purpose), Valid: true},
		sql.NullTime{Time: p.ExpiresAt, Valid: true}
}
