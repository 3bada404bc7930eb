// Package services contains the server-side business logic. This file
// implements AuthService: login with failed-attempt throttling, dual-token
// issuance, refresh-token rotation with server-side revocation, and logout
// cleanup.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rakgl/Own-Pro-Api/internal/common"
	"github.com/Rakgl/Own-Pro-Api/internal/dbx"
	"github.com/Rakgl/Own-Pro-Api/internal/logging"
	"github.com/Rakgl/Own-Pro-Api/internal/server/auth"
	"github.com/Rakgl/Own-Pro-Api/internal/server/config"
	"github.com/Rakgl/Own-Pro-Api/internal/server/models"
	"github.com/Rakgl/Own-Pro-Api/internal/server/ratelimit"
	"github.com/Rakgl/Own-Pro-Api/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenScope is the fixed capability scope stamped on every issued access
// token.
const TokenScope = "admin"

// refreshSecretBytes is the entropy of a refresh secret in bytes; hex
// encoding yields a 64-character printable token.
const refreshSecretBytes = 32

// TokenPair is the response of a successful login or refresh: a bearer
// access token plus the raw refresh secret. This is the only moment the raw
// secret exists outside the client's possession. UserID identifies the owner
// for callers that need it (e.g. to open a web session); it is not part of
// the wire payload.
type TokenPair struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int
	RefreshToken string
	UserID       string
}

// ClientInfo carries the request attributes the auth core records: the
// caller's IP (rate-limit identity, audit) and user agent (audit, device
// identity).
type ClientInfo struct {
	IP        string
	UserAgent string
}

// RateLimitedError reports a throttled login along with how long the caller
// must wait. It matches errors.Is(err, common.ErrRateLimited).
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %ds", e.RetryAfterSeconds())
}

func (e *RateLimitedError) Unwrap() error { return common.ErrRateLimited }

// RetryAfterSeconds rounds the remaining wait up to whole seconds, so the
// client is never told a wait shorter than the real one.
func (e *RateLimitedError) RetryAfterSeconds() int {
	return int((e.RetryAfter + time.Second - 1) / time.Second)
}

// AuthService provides authentication-related operations:
//   - Login: throttle, verify credentials, mint a token pair
//   - Refresh: rotate the refresh-token lineage transactionally
//   - Logout: revoke the caller's lineage and delete its access token
//   - Authenticate: resolve a bearer token to its account
type AuthService struct {
	db                           *sql.DB
	repos                        repomanager.RepositoryManager
	limiter                      ratelimit.Limiter
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	loginWindow                  time.Duration
	now                          func() time.Time
}

// NewAuthService constructs an AuthService using repositories, the login
// limiter, and server config.
func NewAuthService(db *sql.DB, repos repomanager.RepositoryManager, limiter ratelimit.Limiter, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:                           db,
		repos:                        repos,
		limiter:                      limiter,
		logger:                       logger.With("module", "auth_service"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		loginWindow:                  cfg.LoginWindow,
		now:                          time.Now,
	}
}

func limiterKey(ip string) string { return "login|" + ip }

// Login verifies credentials and, on success, issues a fresh token pair
// inside one transaction. The throttle check runs before any password
// comparison. An unknown username and a wrong password are indistinguishable
// to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string, client ClientInfo) (*TokenPair, error) {
	key := limiterKey(client.IP)

	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.logger.Error(ctx, "rate limiter unavailable", "error", err.Error())
		return nil, common.ErrorInternal
	}
	if !allowed {
		retryAfter, err := s.limiter.TimeUntilAllowed(ctx, key)
		if err != nil {
			s.logger.Error(ctx, "rate limiter unavailable", "error", err.Error())
			return nil, common.ErrorInternal
		}
		return nil, &RateLimitedError{RetryAfter: retryAfter}
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	user, err := s.repos.Users(s.db).GetActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.failLogin(ctx, key)
		}
		s.logger.Error(ctx, "user lookup failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), pw) != nil {
		return nil, s.failLogin(ctx, key)
	}

	if err := s.limiter.Clear(ctx, key); err != nil {
		// the login itself is fine; a stale counter only shortens the
		// user's allowance on later failures
		s.logger.Warn(ctx, "rate limiter clear failed", "error", err.Error())
	}

	deviceName := s.deviceIdentity(user.Username, client)

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var issueErr error
		pair, issueErr = s.issuePair(ctx, tx, user, deviceName)
		return issueErr
	}); err != nil {
		s.logger.Error(ctx, "token issuance failed", "user_id", user.ID, "error", err.Error())
		return nil, common.ErrorInternal
	}

	s.recordAudit(ctx, models.AuditLogin, user.ID, client)

	return pair, nil
}

// failLogin counts a failed attempt and returns the uniform credentials
// error.
func (s *AuthService) failLogin(ctx context.Context, key string) error {
	s.logger.Debug(ctx, "failed login attempt", "key", key)
	if err := s.limiter.RecordFailure(ctx, key, s.loginWindow); err != nil {
		s.logger.Error(ctx, "rate limiter record failed", "error", err.Error())
	}
	return common.ErrInvalidCredentials
}

// Refresh validates the presented refresh secret, rotates its lineage inside
// one transaction, and returns a fresh token pair. After a successful
// rotation the presented secret is permanently unusable and the old access
// token is gone, regardless of their own expiries.
func (s *AuthService) Refresh(ctx context.Context, refreshSecret string, client ClientInfo) (*TokenPair, error) {
	record, err := s.repos.RefreshTokens(s.db).FindActiveByHash(ctx, common.HashToken(refreshSecret))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidRefreshToken
		}
		s.logger.Error(ctx, "refresh token lookup failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	// expires_at == now counts as expired; indistinguishable from not-found
	if !s.now().Before(record.ExpiresAt) {
		return nil, common.ErrInvalidRefreshToken
	}

	user, err := s.repos.Users(s.db).GetActiveByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInactiveUser
		}
		s.logger.Error(ctx, "user lookup failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.AccessTokens(tx).DeleteByName(ctx, record.ID); err != nil {
			return err
		}

		won, err := s.repos.RefreshTokens(tx).Revoke(ctx, record.ID)
		if err != nil {
			return err
		}
		if !won {
			// a concurrent rotation consumed this secret first; the
			// rollback restores the access token we just deleted
			return common.ErrInvalidRefreshToken
		}

		var issueErr error
		pair, issueErr = s.issuePair(ctx, tx, user, record.Name)
		return issueErr
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidRefreshToken) {
			return nil, common.ErrInvalidRefreshToken
		}
		s.logger.Error(ctx, "token rotation failed", "user_id", user.ID, "error", err.Error())
		return nil, common.ErrorInternal
	}

	return pair, nil
}

// Logout revokes the refresh-token lineage bound to the caller's access
// token and deletes the access token, in one transaction. A failure inside
// the transaction is rolled back and logged but does not fail the logout:
// the caller is leaving either way, and the revocation failure is surfaced
// to operational logs instead.
func (s *AuthService) Logout(ctx context.Context, user *models.User, tokenID string, client ClientInfo) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// losing the CAS here just means the lineage is already dead
		if _, err := s.repos.RefreshTokens(tx).Revoke(ctx, tokenID); err != nil {
			return err
		}
		return s.repos.AccessTokens(tx).DeleteByName(ctx, tokenID)
	})
	if err != nil {
		s.logger.Error(ctx, "token revocation failed", "user_id", user.ID, "token_id", tokenID, "error", err.Error())
	}

	s.recordAudit(ctx, models.AuditLogout, user.ID, client)

	return nil
}

// Authenticate resolves a bearer token string to its account. The signature
// and expiry of the token are necessary but not sufficient: the bound
// access_tokens row must still exist, which is how rotation and logout kill
// a token early.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, *auth.Claims, error) {
	claims, err := auth.ParseToken(tokenString, s.jwtSecret)
	if err != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	record, err := s.repos.AccessTokens(s.db).FindByName(ctx, claims.TokenID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "access token lookup failed", "error", err.Error())
		return nil, nil, common.ErrorInternal
	}

	if record.UserID != claims.UserID || !s.now().Before(record.ExpiresAt) {
		return nil, nil, common.ErrorUnauthorized
	}

	user, err := s.repos.Users(s.db).GetActiveByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err.Error())
		return nil, nil, common.ErrorInternal
	}

	return user, claims, nil
}

// Permissions returns the permission names granted to the account through
// its role.
func (s *AuthService) Permissions(ctx context.Context, userID string) ([]string, error) {
	permissions, err := s.repos.Users(s.db).Permissions(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "permissions lookup failed", "user_id", userID, "error", err.Error())
		return nil, common.ErrorInternal
	}
	return permissions, nil
}

// --- helpers below ---

// deviceIdentity builds the human-readable lineage label carried from the
// original record to each of its successors. Audit/display only, no
// security weight.
func (s *AuthService) deviceIdentity(username string, client ClientInfo) string {
	return fmt.Sprintf("User: %s, Device: %s, IP: %s, Timestamp: %s",
		username, client.UserAgent, client.IP, s.now().UTC().Format(time.RFC3339))
}

// issuePair mints a refresh secret and its bound access token inside the
// caller's transaction. Either both records land or neither does.
func (s *AuthService) issuePair(ctx context.Context, tx dbx.DBTX, user *models.User, deviceName string) (*TokenPair, error) {
	secret, err := common.MakeRandHexString(refreshSecretBytes)
	if err != nil {
		return nil, fmt.Errorf("generating refresh secret: %w", err)
	}

	recordID := uuid.NewString()
	now := s.now()

	if err := s.repos.RefreshTokens(tx).Create(ctx, &models.RefreshToken{
		ID:        recordID,
		UserID:    user.ID,
		Name:      deviceName,
		TokenHash: common.HashToken(secret),
		ExpiresAt: now.Add(s.refreshTokenValidityDuration),
	}); err != nil {
		return nil, err
	}

	accessToken, err := auth.GenerateToken(user.ID, recordID, TokenScope, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	if err := s.repos.AccessTokens(tx).Create(ctx, &models.AccessToken{
		UserID:    user.ID,
		Name:      recordID,
		Scope:     TokenScope,
		ExpiresAt: now.Add(s.accessTokenValidityDuration),
	}); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.accessTokenValidityDuration.Seconds()),
		RefreshToken: secret,
		UserID:       user.ID,
	}, nil
}

// recordAudit appends a login/logout history row. Fire-and-forget: an audit
// write failure never fails the surrounding operation.
func (s *AuthService) recordAudit(ctx context.Context, eventType, userID string, client ClientInfo) {
	err := s.repos.AuditLog(s.db).Append(ctx, &models.LoginAudit{
		Type:       eventType,
		UserID:     userID,
		IPAddress:  client.IP,
		Browser:    client.UserAgent,
		OccurredAt: s.now(),
	})
	if err != nil {
		s.logger.Error(ctx, "audit write failed", "type", eventType, "user_id", userID, "error", err.Error())
	}
}
