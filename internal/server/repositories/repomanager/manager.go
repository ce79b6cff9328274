package repomanager

import (
	"context"
	"database/sql"

	"github.com/anshc022/imf-gadget-api/internal/dbx"
	"github.com/anshc022/imf-gadget-api/internal/server/repositories/gadgets"
	"github.com/anshc022/imf-gadget-api/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same repositories inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Gadgets(db dbx.DBTX) gadgets.Repository
}
