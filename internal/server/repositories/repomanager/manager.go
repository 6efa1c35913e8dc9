package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bookshelf/internal/dbx"
	"github.com/dmitrijs2005/bookshelf/internal/server/repositories/cartitems"
	"github.com/dmitrijs2005/bookshelf/internal/server/repositories/purchases"
	"github.com/dmitrijs2005/bookshelf/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, so services can run several of them under one dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	CartItems(db dbx.DBTX) cartitems.Repository
	Purchases(db dbx.DBTX) purchases.Repository
}
