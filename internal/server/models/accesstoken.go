package models

import "time"

// AccessToken is the server-side record backing a bearer access token.
//
// Name equals the ID of the refresh-token record the access token is bound
// to; that binding is how rotation and logout locate the access token of a
// given lineage. At most one row exists per Name at any time. Deleting the
// row invalidates the bearer token regardless of its own expiry.
type AccessToken struct {
	ID        int64
	UserID    string
	Name      string
	Scope     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
