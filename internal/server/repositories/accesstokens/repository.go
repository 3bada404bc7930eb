// Package accesstokens declares the repository contract for the server-side
// access-token records backing issued bearer tokens.
package accesstokens

import (
	"context"

	"github.com/Rakgl/Own-Pro-Api/internal/server/models"
)

// Repository persists access-token rows. A row's Name is the ID of the
// refresh-token record it is bound to; deleting the row invalidates the
// bearer token regardless of its own expiry.
type Repository interface {
	// Create inserts the row for a freshly minted access token. The
	// unique constraint on Name is what enforces at most one live access
	// token per refresh lineage.
	Create(ctx context.Context, token *models.AccessToken) error

	// FindByName returns the row bound to the given refresh record id,
	// or common.ErrorNotFound.
	FindByName(ctx context.Context, name string) (*models.AccessToken, error)

	// DeleteByName removes the row bound to the given refresh record id.
	// Deleting a non-existent row is not an error.
	DeleteByName(ctx context.Context, name string) error
}
