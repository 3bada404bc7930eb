package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/Rakgl/Own-Pro-Api/internal/server/auth"
	"github.com/Rakgl/Own-Pro-Api/internal/server/models"
	"github.com/Rakgl/Own-Pro-Api/internal/server/services"
)

type contextKey int

const (
	userContextKey contextKey = iota
	claimsContextKey
)

// userFromContext returns the authenticated account placed by the auth
// middleware.
func userFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userContextKey).(*models.User)
	return u
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return c
}

// clientInfo extracts the caller identity recorded for throttling and audit.
// The first X-Forwarded-For entry wins when a proxy sits in front; otherwise
// the connection's remote address is used.
func clientInfo(r *http.Request) services.ClientInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			ip = strings.TrimSpace(first)
		} else {
			ip = strings.TrimSpace(fwd)
		}
	}
	return services.ClientInfo{IP: ip, UserAgent: r.UserAgent()}
}

// bearerToken pulls the token out of the Authorization header, or "".
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return header[len(prefix):]
}

// authenticated wraps a handler so it only runs for a caller presenting a
// live access token: the signature must verify, the server-side record must
// still exist and be unexpired, and the account must be ACTIVE.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Not authenticated.")
			return
		}

		user, claims, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated.")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, claimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}
