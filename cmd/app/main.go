package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rakebot/internal/app"
	"rakebot/internal/domain"
	"rakebot/internal/execution"
	"rakebot/internal/infra"
	"rakebot/internal/infra/coinbase"
	"rakebot/internal/service"
	"rakebot/internal/strategy"

	"github.com/shopspring/decimal"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Exchange Gateway (live, optionally wrapped in the paper simulator)
	live := coinbase.NewClient(cfg)
	var gateway domain.ExchangeGateway = live
	if cfg.Trading.Paper {
		gateway = execution.NewPaperGateway(live, map[string]decimal.Decimal{
			"USD":              cfg.Trading.PaperBalances.USD,
			cfg.Trading.Ticker: cfg.Trading.PaperBalances.Base,
		})
		slog.InfoContext(ctx, "✅ Paper trading mode",
			slog.String("usd", cfg.Trading.PaperBalances.USD.String()),
			slog.String(cfg.Trading.Ticker, cfg.Trading.PaperBalances.Base.String()))
	}

	executor := service.NewOrderExecutor(
		gateway,
		time.Duration(cfg.Trading.PollIntervalMS)*time.Millisecond,
		time.Duration(cfg.Trading.SettlementTimeoutSec)*time.Second,
		infra.GlobalMetrics,
	)

	// 5. Price Stream & Alerts (display only; trading always reads REST)
	if cfg.API.Coinbase.WSURL != "" {
		alerts := buildAlerts(ctx, cfg, gateway)
		monitor := service.NewPriceMonitor(alerts)
		monitor.Start(ctx)

		worker := coinbase.NewTickerWorker(
			cfg.API.Coinbase.WSURL,
			[]string{domain.ProductID(cfg.Trading.Ticker)},
			monitor.TickerChan(),
			infra.GlobalMetrics,
		)
		if err := worker.Connect(ctx); err != nil {
			slog.Error("Failed to start price stream", slog.Any("error", err))
		}
		defer worker.Disconnect()
		slog.InfoContext(ctx, "✅ Price stream started", slog.Int("alerts", len(alerts)))
	}

	// 6. Rake Strategy
	rake := strategy.NewRake(strategy.RakeConfig{
		Ticker:    cfg.Trading.Ticker,
		Principal: cfg.Trading.Principal,
		Rake:      *cfg.Trading.Rake,
		Delay:     time.Duration(cfg.Trading.DelaySec) * time.Second,
	}, gateway, executor, bootstrap.Storage, infra.GlobalMetrics)

	if err := rake.Init(ctx); err != nil {
		slog.Error("❌ Strategy initialization failed", slog.Any("error", err))
		os.Exit(1)
	}

	go func() {
		if err := rake.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Strategy stopped", slog.Any("error", err))
			stop()
		}
	}()

	slog.InfoContext(ctx, "✨ Rake Bot fully operational. Press Ctrl+C to exit.",
		slog.String("ticker", cfg.Trading.Ticker),
		slog.String("principal", cfg.Trading.Principal.String()),
		slog.String("rake", cfg.Trading.Rake.String()))

	// Wait for shutdown signal
	<-ctx.Done()

	snap := infra.GlobalMetrics.Snapshot()
	slog.Info("Session metrics",
		slog.Uint64("orders_submitted", snap.OrdersSubmitted),
		slog.Uint64("orders_filled", snap.OrdersFilled),
		slog.Uint64("orders_rejected", snap.OrdersRejected),
		slog.Uint64("orders_unfilled", snap.OrdersUnfilled),
		slog.Uint64("settlement_timeouts", snap.SettlementTimeouts),
		slog.Uint64("sells_triggered", snap.SellsTriggered),
		slog.Uint64("errors_total", snap.ErrorsTotal),
		slog.Duration("avg_wait", time.Duration(snap.AvgWaitNs)))

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}

// buildAlerts arms configured price alerts against the current market price.
func buildAlerts(ctx context.Context, cfg *infra.Config, gateway domain.ExchangeGateway) []*domain.AlertConfig {
	var alerts []*domain.AlertConfig
	for _, a := range cfg.Alerts {
		product, err := gateway.GetProduct(ctx, domain.ProductID(a.Ticker))
		if err != nil {
			slog.Warn("Skipping alert, product lookup failed",
				slog.String("ticker", a.Ticker), slog.Any("error", err))
			continue
		}
		alerts = append(alerts, domain.NewAlertConfig(a.Ticker, a.TargetPrice, product.Price, a.Persistent))
	}
	return alerts
}
