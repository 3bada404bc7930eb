// Package models holds the persistence-level records shared by repositories
// and services.
package models

import "time"

// Account statuses. Only active accounts may authenticate or refresh.
const (
	UserStatusActive   = "ACTIVE"
	UserStatusInactive = "INACTIVE"
)

// User is the slice of the account record the auth core needs. The rest of
// the admin backend owns the full entity.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Status       string
	CreatedAt    time.Time
}
