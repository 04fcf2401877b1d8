package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samimwebdev/jsninja/internal/authn"
	"github.com/samimwebdev/jsninja/internal/session"
	httpapi "github.com/samimwebdev/jsninja/internal/web/http"
	"github.com/samimwebdev/jsninja/pkg/identity"
	"github.com/samimwebdev/jsninja/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the web front end with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	backend  *identity.Client
	core     *authn.Core
	sessions session.Provider
	redis    *redis.Client // nil with the cookie backend

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "web",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initSessions(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mainly for in-process tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("web starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"backend", app.cfg.BackendURL,
		"session_backend", app.cfg.SessionBackend,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down web...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			return err
		}
	}

	app.logger.Info("web stopped")
	return nil
}

// initSessions selects the session backend.
func (app *Application) initSessions() error {
	cookies := session.CookieConfig{Secure: app.cfg.SecureCookies()}

	switch app.cfg.SessionBackend {
	case SessionBackendCookie:
		app.sessions = session.CookieProvider{Config: cookies}
	case SessionBackendRedis:
		app.redis = redis.NewClient(&redis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.redis.Ping(ctx).Err(); err != nil {
			_ = app.redis.Close()
			return fmt.Errorf("failed to connect to redis at %s: %w", app.cfg.RedisAddr, err)
		}

		app.sessions = session.NewRedisProvider(app.redis, "websession", cookies, app.cfg.SessionTTL)
		app.logger.Info("redis session store connected", "addr", app.cfg.RedisAddr)
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q (want cookie or redis)", app.cfg.SessionBackend)
	}

	return nil
}

// initServices builds the backend client and the session core. The pending
// ticket lifetime is fixed at session.PendingTTL.
func (app *Application) initServices() {
	app.backend = identity.New(app.cfg.BackendURL, app.cfg.BackendTimeout)
	app.core = authn.New(app.backend, authn.Options{
		SessionTTL: app.cfg.SessionTTL,
		PendingTTL: session.PendingTTL,
		LoginPath:  app.cfg.LoginPath,
	})
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.core,
		app.sessions,
		app.cfg.LoginPath,
		BuildVersion,
		app.logger,
	)

	router.ReadyChecks["backend"] = app.backendReady
	if p, ok := app.sessions.(*session.RedisProvider); ok {
		router.ReadyChecks["sessions"] = p.Ping
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// backendReady probes the backend liveness endpoint.
func (app *Application) backendReady(ctx context.Context) error {
	raw, err := app.backend.Send(ctx, http.MethodGet, "/livez", nil, nil, "")
	if err != nil {
		return err
	}
	if raw.StatusCode != http.StatusOK {
		return fmt.Errorf("backend liveness returned %d", raw.StatusCode)
	}
	return nil
}
