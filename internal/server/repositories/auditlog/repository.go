// Package auditlog declares the repository contract for the append-only
// login/logout history.
package auditlog

import (
	"context"

	"github.com/Rakgl/Own-Pro-Api/internal/server/models"
)

// Repository appends audit rows. There are no update or delete operations:
// the table is pure history.
type Repository interface {
	Append(ctx context.Context, entry *models.LoginAudit) error
}
