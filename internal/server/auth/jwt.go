// Package auth mints and parses the signed bearer access tokens.
//
// The token carries the ID of the refresh-token record it is bound to, so the
// server can locate and delete the matching access_tokens row on rotation or
// logout. A parsed token is only half of authentication: the bound row must
// still exist in the store, which is what lets the server kill a token before
// its own expiry.
package auth

import (
	"time"

	"github.com/Rakgl/Own-Pro-Api/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access-token payload: registered claims plus the owning user
// and the bound refresh-token record ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"uid"`
	TokenID string `json:"tid"`
	Scope   string `json:"scope"`
}

// GenerateToken signs an HS256 access token for userID bound to the refresh
// record tokenID, expiring after validityDuration.
func GenerateToken(userID, tokenID, scope string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:  userID,
		TokenID: tokenID,
		Scope:   scope,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates the signature and expiry of tokenString and returns
// its claims. Any failure maps to common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.TokenID == "" || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
