package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/predictdash/internal/control"
	"github.com/vietddude/predictdash/internal/core/config"
	"github.com/vietddude/predictdash/internal/core/retry"
	"github.com/vietddude/predictdash/internal/infra/upstream"
	"github.com/vietddude/stylelog"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "predictdash",
	Short: "Prediction dashboard service",
	Long:  `Predictdash serves a market prediction dashboard backed by a resilient client for the prediction API.`,
	Run:   runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

func runServe(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	// Load Configuration
	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	initLogging(cfg)

	// Invalid values degrade to defaults; report every one of them.
	for _, v := range cfg.Sanitize() {
		slog.Warn("Invalid configuration value, using default",
			"field", v.Field, "constraint", v.Constraint, "value", v.Value)
	}

	// Transform config
	controlCfg := control.Config{
		Port: cfg.Server.Port,
		Upstream: upstream.Config{
			BaseURL: cfg.Upstream.BaseURL,
			Timeout: cfg.Upstream.Timeout(),
			Policy: retry.Policy{
				MaxAttempts: cfg.Upstream.RetryAttempts,
				BaseDelay:   cfg.Upstream.RetryBaseDelay(),
			},
		},
		Redis: cfg.Cache,
	}

	// Initialize App
	app, err := control.NewApp(controlCfg)
	if err != nil {
		slog.Error("Failed to initialize dashboard", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start dashboard", "error", err)
		os.Exit(1)
	}

	slog.Info("Dashboard running", "config", cfgPath)

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}

func initLogging(cfg *config.AppConfig) {
	slogLevel := slog.LevelInfo
	switch {
	case isDebug || strings.EqualFold(cfg.Logging.Level, "debug"):
		slogLevel = slog.LevelDebug
	case strings.EqualFold(cfg.Logging.Level, "warn"):
		slogLevel = slog.LevelWarn
	case strings.EqualFold(cfg.Logging.Level, "error"):
		slogLevel = slog.LevelError
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
}
