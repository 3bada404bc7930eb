// Package refreshtokens declares the repository contract for refresh-token
// lineage records.
package refreshtokens

import (
	"context"

	"github.com/Rakgl/Own-Pro-Api/internal/server/models"
)

// Repository persists refresh-token records. Records are never physically
// deleted; revocation flips the monotonic revoked flag and the row stays for
// forensics.
type Repository interface {
	// Create inserts a new, non-revoked record. The record's TokenHash
	// must already be the at-rest hash; the raw secret never reaches the
	// repository.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindActiveByHash looks up the non-revoked record with the given
	// token hash, or returns common.ErrorNotFound. Expiry checking is the
	// caller's concern.
	FindActiveByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Revoke flips the revoked flag of the record with the given id and
	// reports whether this call won the flip. It must be a conditional
	// update (only where revoked is still false) so the store itself
	// enforces single-winner semantics under concurrent rotation.
	Revoke(ctx context.Context, id string) (bool, error)
}
