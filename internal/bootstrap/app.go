package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/genui-analytics/internal/infra/config"
)

// BackendProbe reports whether the profile backend is reachable.
type BackendProbe interface {
	Healthy(ctx context.Context) bool
}

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	backend BackendProbe
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, backend BackendProbe) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, backend: backend}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	a.probeBackend(ctx)

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address, "backend", a.cfg.Backend.BaseURL, "location_provider", a.cfg.Location.Provider)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// A down backend is not fatal: pages fall back to the error stat until it recovers.
func (a *App) probeBackend(ctx context.Context) {
	if a.backend == nil {
		return
	}
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if a.backend.Healthy(probeCtx) {
		a.logger.Info("profile backend reachable", "url", a.cfg.Backend.BaseURL)
		return
	}
	a.logger.Warn("profile backend unreachable at startup", "url", a.cfg.Backend.BaseURL)
}
