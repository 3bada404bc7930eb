package auditlog

import (
	"context"
	"fmt"

	"github.com/Rakgl/Own-Pro-Api/internal/dbx"
	"github.com/Rakgl/Own-Pro-Api/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, entry *models.LoginAudit) error {
	query := `
		INSERT INTO user_logins (type, user_id, ip_address, browser, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		entry.Type, entry.UserID, entry.IPAddress, entry.Browser, entry.OccurredAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
