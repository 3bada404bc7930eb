// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/Rakgl/Own-Pro-Api/internal/dbx"
	"github.com/Rakgl/Own-Pro-Api/internal/server/migrations"
	"github.com/Rakgl/Own-Pro-Api/internal/server/repositories/accesstokens"
	"github.com/Rakgl/Own-Pro-Api/internal/server/repositories/auditlog"
	"github.com/Rakgl/Own-Pro-Api/internal/server/repositories/refreshtokens"
	"github.com/Rakgl/Own-Pro-Api/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// RefreshTokens returns a refreshtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

// AccessTokens returns an accesstokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) AccessTokens(db dbx.DBTX) accesstokens.Repository {
	return accesstokens.NewPostgresRepository(db)
}

// AuditLog returns an auditlog.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) AuditLog(db dbx.DBTX) auditlog.Repository {
	return auditlog.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}
