package models

import "time"

// RefreshToken is the durable record of one refresh-token lineage.
//
// TokenHash is the hex-encoded SHA-256 of the raw secret; the raw value is
// returned to the client exactly once at issuance and never stored. Name is a
// human-readable device identity (user, agent, IP, issuance time) kept for
// audit display only. Revoked transitions false→true exactly once and is
// never reset; revoked rows are retained, not deleted.
type RefreshToken struct {
	ID        string
	UserID    string
	Name      string
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
