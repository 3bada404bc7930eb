package accesstokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Rakgl/Own-Pro-Api/internal/common"
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

func (r *PostgresRepository) Create(ctx context.Context, token *models.AccessToken) error {
	query := `
		INSERT INTO access_tokens (user_id, name, scope, expires_at, created_at)
		VALUES ($1, $2, $3, $4, now())
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.UserID, token.Name, token.Scope, token.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByName(ctx context.Context, name string) (*models.AccessToken, error) {
	query := `
		SELECT id, user_id, name, scope, expires_at
		FROM access_tokens
		WHERE name = $1
	`
	token := &models.AccessToken{}
	err := r.db.QueryRowContext(ctx, query, name).
		Scan(&token.ID, &token.UserID, &token.Name, &token.Scope, &token.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) DeleteByName(ctx context.Context, name string) error {
	query := `
		DELETE FROM access_tokens
		WHERE name = $1
	`
	if _, err := r.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
