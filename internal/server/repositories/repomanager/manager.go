package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/contactkeeper/internal/dbx"
	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/contacts"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can run
// the same repository code against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Contacts(db dbx.DBTX) contacts.Repository
}
