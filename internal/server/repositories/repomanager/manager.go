// Package repomanager hands out repository instances bound to a database
// handle, so services can run them against either the pool or an open
// transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dberezins/threatlens/internal/dbx"
	"github.com/dberezins/threatlens/internal/server/repositories/accounts"
	"github.com/dberezins/threatlens/internal/server/repositories/scans"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Scans(db dbx.DBTX) scans.Repository
}
