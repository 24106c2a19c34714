package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/helpdesk/internal/dbx"
	"github.com/dmitrijs2005/helpdesk/internal/server/repositories/accounts"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, and owns schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
}
