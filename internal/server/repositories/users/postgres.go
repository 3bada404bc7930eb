package users

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

func (r *PostgresRepository) GetActiveByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password, status, created_at
		FROM users
		WHERE username = $1 AND status = $2
	`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username, models.UserStatusActive).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Status, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetActiveByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, password, status, created_at
		FROM users
		WHERE id = $1 AND status = $2
	`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id, models.UserStatusActive).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Status, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Permissions(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT p.name
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN users u ON u.role_id = rp.role_id
		WHERE u.id = $1
		ORDER BY p.name
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		permissions = append(permissions, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return permissions, nil
}
