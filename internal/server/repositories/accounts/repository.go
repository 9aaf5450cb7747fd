// Package accounts persists identity rows: credentials, verification state
// and the single pending one-time secret per account.
package accounts

import (
	"context"
	"time"

	"github.com/dberezins/threatlens/internal/server/models"
)

// Repository is the credential store contract. All mutations touch a single
// row and are atomic with respect to one account. The consume methods are
// the conditional compare-and-clear for the pending-secret slot: the hash,
// purpose and expiry are checked and the slot cleared in one statement, so
// two concurrent consumers can never both succeed.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	SetVerified(ctx context.Context, id string) error
	SetPendingSecret(ctx context.Context, id string, secret models.PendingSecret) error
	ClearPendingSecret(ctx context.Context, id string) error
	ConsumeVerificationCode(ctx context.Context, email, hash string, now time.Time) (*models.Account, error)
	ConsumeResetToken(ctx context.Context, hash string, now time.Time) (*models.Account, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateProfile(ctx context.Context, id, name, email string) error
}
