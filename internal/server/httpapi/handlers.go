package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Rakgl/Own-Pro-Api/internal/common"
	"github.com/Rakgl/Own-Pro-Api/internal/server/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required.")
		return
	}

	pair, err := s.auth.Login(r.Context(), req.Username, req.Password, clientInfo(r))
	if err != nil {
		var limited *services.RateLimitedError
		switch {
		case errors.As(err, &limited):
			writeError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Too many login attempts. Please try again in %d seconds.", limited.RetryAfterSeconds()))
		case errors.Is(err, common.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Incorrect username or password.")
		default:
			writeError(w, http.StatusInternalServerError, "Login failed. Please try again.")
		}
		return
	}

	s.openSession(w, r, pair.UserID)

	writeSuccess(w, "Login successfully.", tokenData{
		AccessToken:  pair.AccessToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Refresh token is required.")
		return
	}

	pair, err := s.auth.Refresh(r.Context(), req.RefreshToken, clientInfo(r))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidRefreshToken):
			writeError(w, http.StatusUnauthorized, "Invalid or expired refresh token.")
		case errors.Is(err, common.ErrInactiveUser):
			writeError(w, http.StatusNotFound, "Invalid or inactive user.")
		default:
			writeError(w, http.StatusInternalServerError, "Token refresh failed. Please try again.")
		}
		return
	}

	writeSuccess(w, "Refresh token successfully.", tokenData{
		AccessToken:  pair.AccessToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	claims := claimsFromContext(r.Context())

	// token teardown and session teardown are independent: neither failing
	// blocks the other, and both are safe to repeat
	_ = s.auth.Logout(r.Context(), user, claims.TokenID, clientInfo(r))
	s.closeSession(w, r)

	writeSuccess(w, "Logout successfully.", nil)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	permissions, err := s.auth.Permissions(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeSuccess(w, "", map[string]any{
		"user":        userData{ID: user.ID, Username: user.Username, Status: user.Status},
		"permissions": permissions,
	})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	writeSuccess(w, "", userData{ID: user.ID, Username: user.Username, Status: user.Status})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	writeSuccess(w, "Authenticated.", userData{ID: user.ID, Username: user.Username, Status: user.Status})
}

// openSession starts a cookie-backed web session next to the bearer tokens,
// but only for clients already in cookie mode: a request without the session
// cookie is an API caller and gets tokens only. The presented session id is
// discarded and replaced with a fresh one. Best effort: a session store
// failure does not fail the login.
func (s *Server) openSession(w http.ResponseWriter, r *http.Request, userID string) {
	old, err := r.Cookie(s.cookieName)
	if err != nil {
		return
	}
	_ = s.sessions.Invalidate(r.Context(), old.Value)

	sess, err := s.sessions.Create(r.Context(), userID)
	if err != nil {
		s.logger.Warn(r.Context(), "session create failed", "error", err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// closeSession invalidates the caller's web session, rotating its
// anti-forgery token first so a captured value dies with the session, and
// expires the cookie.
func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return
	}

	if _, err := s.sessions.RotateCSRF(r.Context(), cookie.Value); err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(r.Context(), "csrf rotation failed", "error", err.Error())
	}
	_ = s.sessions.Invalidate(r.Context(), cookie.Value)

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
