package models

import "time"

// Audit event types.
const (
	AuditLogin  = "Login"
	AuditLogout = "Logout"
)

// LoginAudit is one append-only row of login/logout history.
// Rows are never updated or deleted.
type LoginAudit struct {
	ID         int64
	Type       string
	UserID     string
	IPAddress  string
	Browser    string
	OccurredAt time.Time
}
