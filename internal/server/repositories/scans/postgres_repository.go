package scans

import (
	"context"
	"fmt"

	"github.com/dberezins/threatlens/internal/dbx"
	"github.com/dberezins/threatlens/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, scan *models.Scan) (*models.Scan, error) {

	query :=
		`INSERT INTO scans (account_id, scan_type, input, result, storage_key)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		scan.AccountID, string(scan.Type), scan.Input, scan.Result, scan.StorageKey).
		Scan(&scan.ID, &scan.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return scan, nil
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Scan, error) {

	query :=
		`SELECT id, account_id, scan_type, input, result, storage_key, created_at
		 FROM scans
		 WHERE account_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Scan
	for rows.Next() {
		s := &models.Scan{}
		var scanType string
		if err := rows.Scan(&s.ID, &s.AccountID, &scanType, &s.Input, &s.Result, &s.StorageKey, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		s.Type = models.ScanType(scanType)
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
