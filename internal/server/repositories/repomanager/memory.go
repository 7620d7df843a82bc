package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/contactkeeper/internal/dbx"
	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/contacts"
)

// MemoryRepositoryManager hands out one shared in-memory store regardless of
// the DBTX it is given. Transactions opened by services still run, but the
// store itself does not roll back.
type MemoryRepositoryManager struct {
	accounts *accounts.MemoryRepository
	contacts *contacts.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		accounts: accounts.NewMemoryRepository(),
		contacts: contacts.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository { return m.accounts }

func (m *MemoryRepositoryManager) Contacts(dbx.DBTX) contacts.Repository { return m.contacts }
