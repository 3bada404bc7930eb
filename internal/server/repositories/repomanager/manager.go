package repomanager

import (
	"context"
	"database/sql"

	"github.com/Rakgl/Own-Pro-Api/internal/dbx"
	"github.com/Rakgl/Own-Pro-Api/internal/server/repositories/accesstokens"
	"github.com/Rakgl/Own-Pro-Api/internal/server/repositories/auditlog"
	"github.com/Rakgl/Own-Pro-Api/internal/server/repositories/refreshtokens"
	"github.com/Rakgl/Own-Pro-Api/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to the given DBTX, so a service
// can run the same repository code against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	AccessTokens(db dbx.DBTX) accesstokens.Repository
	AuditLog(db dbx.DBTX) auditlog.Repository
}
