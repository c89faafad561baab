package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tenantkeeper/internal/dbx"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/repositories/progress"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Progress(db dbx.DBTX) progress.Repository
}
