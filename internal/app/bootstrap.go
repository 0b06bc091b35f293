package app

import (
	"log/slog"
	"time"

	"rakebot/internal/infra"
	"rakebot/internal/infra/storage"

	"github.com/joho/godotenv"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (Env, Config, Logger, DB)
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping Rake Bot...")

	// 1. Load .env (optional; API keys may come from the real environment)
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded credentials from .env")
	}

	// 2. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 3. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 4. Initialize Storage (DB)
	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 5. Record run metadata
	if prev, err := store.LoadConfigMap(); err == nil && prev["last_start"] != "" {
		slog.Info("Previous run",
			slog.String("last_start", prev["last_start"]),
			slog.String("mode", prev["mode"]))
	}
	mode := "live"
	if cfg.Trading.Paper {
		mode = "paper"
	}
	if err := store.SaveConfig("mode", mode); err != nil {
		slog.Warn("Failed to record run mode", slog.Any("error", err))
	}
	if err := store.SaveConfig("last_start", time.Now().UTC().Format(time.RFC3339)); err != nil {
		slog.Warn("Failed to record start time", slog.Any("error", err))
	}

	return nil
}
