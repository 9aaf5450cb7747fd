// Package scans persists the per-account classification history.
package scans

import (
	"context"

	"github.com/dberezins/threatlens/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, scan *models.Scan) (*models.Scan, error)
	ListByAccount(ctx context.Context, accountID string) ([]*models.Scan, error)
}
