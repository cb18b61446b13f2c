// Package control wires the dashboard application together and manages
// its lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/predictdash/internal/core/domain"
	"github.com/vietddude/predictdash/internal/core/fetch"
	"github.com/vietddude/predictdash/internal/dashboard"
	redisclient "github.com/vietddude/predictdash/internal/infra/redis"
	"github.com/vietddude/predictdash/internal/infra/upstream"
)

// App is the main application struct that manages the dashboard lifecycle.
type App struct {
	cfg           Config
	predict       *fetch.Machine[domain.Prediction]
	history       *fetch.Machine[domain.History]
	predictClient *upstream.Client
	historyClient *upstream.Client
	server        *dashboard.Server
	cache         *redisclient.Cache
	log           *slog.Logger
}

// Config holds the application configuration.
type Config struct {
	Port     int
	Upstream upstream.Config
	Redis    redisclient.Config
}

// NewApp creates a new App with all dependencies initialized.
func NewApp(cfg Config) (*App, error) {
	if cfg.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("upstream base URL is required")
	}
	log := slog.Default()

	// 1. Upstream clients. Each machine gets its own so cancelling one
	// view's requests never aborts the other's.
	predictClient := upstream.NewClient(cfg.Upstream, log.With("client", "prediction"))
	historyClient := upstream.NewClient(cfg.Upstream, log.With("client", "history"))

	var predictFn fetch.FetchFunc[domain.Prediction] = predictClient.Prediction
	var historyFn fetch.FetchFunc[domain.History] = historyClient.History

	// 2. Optional Redis response cache
	var cache *redisclient.Cache
	if cfg.Redis.URL != "" {
		var err error
		cache, err = redisclient.NewCache(cfg.Redis, log)
		if err != nil {
			log.Warn("Failed to connect to Redis, caching disabled", "error", err)
			cache = nil
		} else {
			predictFn = redisclient.WrapPrediction(cache, predictFn)
			historyFn = redisclient.WrapHistory(cache, historyFn)
			log.Info("Response cache enabled", "ttl", cfg.Redis.TTL())
		}
	}

	// 3. Fetch machines
	predict := fetch.NewMachine("prediction", predictFn, predictClient.CancelPendingRequests, log)
	history := fetch.NewMachine("history", historyFn, historyClient.CancelPendingRequests, log)

	// 4. Dashboard HTTP server
	server := dashboard.NewServer(predict, history, cfg.Port, log)

	return &App{
		cfg:           cfg,
		predict:       predict,
		history:       history,
		predictClient: predictClient,
		historyClient: historyClient,
		server:        server,
		cache:         cache,
		log:           log,
	}, nil
}

// Start starts the dashboard server.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Dashboard server failed", "error", err)
		}
	}()

	a.log.Info("Dashboard started", "port", a.cfg.Port, "upstream", a.cfg.Upstream.BaseURL)
	return nil
}

// Stop stops the app: machines first so in-flight requests abort, then
// the cache connection, then the HTTP server.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping dashboard...")

	a.predict.Close()
	a.history.Close()
	a.predictClient.Close()
	a.historyClient.Close()

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}

	return a.server.Stop(ctx)
}
