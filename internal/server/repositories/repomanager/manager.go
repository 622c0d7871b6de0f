// Package repomanager wires the SQL repositories to one database connection
// and runs schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/fileshare/internal/server/repositories/categories"
	"github.com/dmitrijs2005/fileshare/internal/server/repositories/files"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Files() files.Repository
	Categories() categories.Repository
}
