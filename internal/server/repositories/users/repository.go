// Package users declares the repository contract for the slice of the
// account store the auth core reads.
package users

import (
	"context"

	"github.com/Rakgl/Own-Pro-Api/internal/server/models"
)

// Repository reads accounts and their permission set. The auth core never
// writes accounts; the rest of the admin backend owns them.
type Repository interface {
	// GetActiveByUsername returns the single ACTIVE account with the given
	// username, or common.ErrorNotFound.
	GetActiveByUsername(ctx context.Context, username string) (*models.User, error)

	// GetActiveByID returns the ACTIVE account with the given id, or
	// common.ErrorNotFound.
	GetActiveByID(ctx context.Context, id string) (*models.User, error)

	// Permissions returns the permission names granted through the
	// account's role.
	Permissions(ctx context.Context, userID string) ([]string, error)
}
