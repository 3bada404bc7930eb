// Package server initializes and runs the admin API server: it opens the
// database, applies migrations, picks the login rate limiter, and starts the
// HTTP endpoint with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Rakgl/Own-Pro-Api/internal/logging"
	"github.com/Rakgl/Own-Pro-Api/internal/server/config"
	"github.com/Rakgl/Own-Pro-Api/internal/server/httpapi"
	"github.com/Rakgl/Own-Pro-Api/internal/server/ratelimit"
	"github.com/Rakgl/Own-Pro-Api/internal/server/repositories/repomanager"
	"github.com/Rakgl/Own-Pro-Api/internal/server/services"
	"github.com/Rakgl/Own-Pro-Api/internal/server/sessions"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	// a Redis address switches the limiter from per-process to shared
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiter = ratelimit.NewRedisLimiter(client, cfg.LoginMaxAttempts)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.LoginMaxAttempts, nil)
	}

	authService := services.NewAuthService(db, repos, limiter, cfg, logger)
	sessionStore := sessions.NewStore(nil)
	httpServer := httpapi.NewServer(cfg, authService, sessionStore, logger)

	return &App{config: cfg, logger: logger, db: db, httpServer: httpServer}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
