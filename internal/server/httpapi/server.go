// Package httpapi exposes the auth core over HTTP JSON: login, refresh,
// logout, and the authenticated read endpoints. Every response uses the
// {success, message, data} envelope.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Rakgl/Own-Pro-Api/internal/logging"
	"github.com/Rakgl/Own-Pro-Api/internal/server/auth"
	"github.com/Rakgl/Own-Pro-Api/internal/server/config"
	"github.com/Rakgl/Own-Pro-Api/internal/server/models"
	"github.com/Rakgl/Own-Pro-Api/internal/server/services"
	"github.com/Rakgl/Own-Pro-Api/internal/server/sessions"
)

// AuthService is the slice of the auth core the HTTP layer calls.
type AuthService interface {
	Login(ctx context.Context, username, password string, client services.ClientInfo) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshSecret string, client services.ClientInfo) (*services.TokenPair, error)
	Logout(ctx context.Context, user *models.User, tokenID string, client services.ClientInfo) error
	Authenticate(ctx context.Context, tokenString string) (*models.User, *auth.Claims, error)
	Permissions(ctx context.Context, userID string) ([]string, error)
}

// Server serves the public HTTP endpoint.
type Server struct {
	auth       AuthService
	sessions   *sessions.Store
	logger     logging.Logger
	cookieName string
	httpServer *http.Server
}

// NewServer wires the handlers and returns a Server bound to
// cfg.EndpointAddr.
func NewServer(cfg *config.Config, authService AuthService, sessionStore *sessions.Store, logger logging.Logger) *Server {
	s := &Server{
		auth:       authService,
		sessions:   sessionStore,
		logger:     logger.With("module", "httpapi"),
		cookieName: cfg.SessionCookieName,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.EndpointAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.HandleFunc("POST /logout", s.authenticated(s.handleLogout))
	mux.HandleFunc("GET /info", s.authenticated(s.handleInfo))
	mux.HandleFunc("GET /user", s.authenticated(s.handleUser))
	mux.HandleFunc("GET /check", s.authenticated(s.handleCheck))
	return mux
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully, letting
// in-flight requests finish.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info(ctx, "http server listening", "addr", s.httpServer.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info(ctx, "http server stopping")
	return s.httpServer.Shutdown(shutdownCtx)
}
