package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gopfolio/internal/dbx"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/details"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/totals"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/transactions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Details(db dbx.DBTX) details.Repository
	Transactions(db dbx.DBTX) transactions.Repository
	Totals(db dbx.DBTX) totals.Repository
	Catalog(db dbx.DBTX) catalog.Repository
}
