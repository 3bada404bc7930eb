package refreshtokens

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

func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, name, token, expires_at, revoked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, now(), now())
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.Name, token.TokenHash, token.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindActiveByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, name, token, expires_at, revoked
		FROM refresh_tokens
		WHERE token = $1 AND revoked = false
	`
	token := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).
		Scan(&token.ID, &token.UserID, &token.Name, &token.TokenHash, &token.ExpiresAt, &token.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// Revoke is a compare-and-set on the revoked flag: the WHERE clause only
// matches while revoked is still false, so of N concurrent callers exactly
// one sees rowsAffected == 1 and the database itself picks the winner.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = true, updated_at = now()
		WHERE id = $1 AND revoked = false
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected == 1, nil
}
