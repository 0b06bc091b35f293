package strategy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rakebot/internal/domain"
	"rakebot/internal/infra"
	"rakebot/internal/service"

	"github.com/shopspring/decimal"
)

// StateStore persists strategy state across restarts. Nil is allowed; the
// strategy then runs purely in memory.
type StateStore interface {
	SaveStrategyState(state *domain.StrategyState) error
	GetStrategyState(ticker string) (*domain.StrategyState, error)
}

// RakeConfig holds the tunables of the rake loop.
type RakeConfig struct {
	Ticker    string
	Principal decimal.Decimal // USD value the position is held at
	Rake      decimal.Decimal // minimum USD profit before skimming
	Delay     time.Duration   // pause between evaluation cycles
}

// Rake skims profit off a single position. The USD value of the holding
// above the initial surplus (the reserve) is tracked against the principal;
// whenever it exceeds principal plus the rake threshold, the excess is sold
// and the position returns to its principal value. The reserve itself is
// never traded.
type Rake struct {
	cfg      RakeConfig
	gateway  domain.ExchangeGateway
	executor *service.OrderExecutor
	store    StateStore
	metrics  *infra.Metrics
	logger   *slog.Logger

	reserve decimal.Decimal
}

// NewRake wires a rake strategy over an executor and its gateway.
func NewRake(cfg RakeConfig, gateway domain.ExchangeGateway, executor *service.OrderExecutor, store StateStore, metrics *infra.Metrics) *Rake {
	return &Rake{
		cfg:      cfg,
		gateway:  gateway,
		executor: executor,
		store:    store,
		metrics:  metrics,
		logger:   slog.Default().With("module", "rake", "ticker", cfg.Ticker),
	}
}

// Reserve returns the USD surplus excluded from tracking.
func (r *Rake) Reserve() decimal.Decimal {
	return r.reserve
}

// Init snapshots the holding and fixes the reserve: everything the position
// is worth beyond the principal at startup. A holding below principal gets a
// zero reserve and the loop simply waits for it to grow.
func (r *Rake) Init(ctx context.Context) error {
	value, err := r.executor.BalanceUSD(ctx, r.cfg.Ticker)
	if err != nil {
		return err
	}

	r.reserve = value.Sub(r.cfg.Principal)
	if r.reserve.IsNegative() {
		r.logger.Info("Holding below principal, accumulating",
			slog.String("value", value.String()),
			slog.String("principal", r.cfg.Principal.String()))
		r.reserve = decimal.Zero
	}

	r.logger.Info("Strategy initialized",
		slog.String("value", value.String()),
		slog.String("principal", r.cfg.Principal.String()),
		slog.String("rake", r.cfg.Rake.String()),
		slog.String("reserve", r.reserve.String()))

	if r.store != nil {
		if prev, err := r.store.GetStrategyState(r.cfg.Ticker); err != nil {
			r.logger.Warn("Failed to load prior strategy state", slog.Any("error", err))
		} else if prev != nil {
			r.logger.Info("Previous ratchet point",
				slog.String("principal", prev.Principal),
				slog.String("reserve", prev.Reserve),
				slog.Time("updated_at", prev.UpdatedAt))
		}

		state := &domain.StrategyState{
			Ticker:    r.cfg.Ticker,
			Principal: r.cfg.Principal.String(),
			Reserve:   r.reserve.String(),
		}
		if err := r.store.SaveStrategyState(state); err != nil {
			r.logger.Warn("Failed to persist strategy state", slog.Any("error", err))
		}
	}
	return nil
}

// Run drives evaluation cycles until the context is cancelled. Trading
// errors are logged and the loop continues; only cancellation stops it.
func (r *Rake) Run(ctx context.Context) error {
	for {
		if t, err := r.gateway.GetServerTime(ctx); err == nil {
			r.logger.Info("Cycle start", slog.Time("server_time", t))
		} else if ctx.Err() != nil {
			return ctx.Err()
		} else {
			r.logger.Warn("Server time unavailable", slog.Any("error", err))
		}

		if sold, err := r.evaluate(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logCycleError(err)
		} else if sold.IsPositive() {
			r.logger.Info("Raked profit", slog.String("sold_usd", sold.String()))
		}

		if values, err := r.executor.AccountValues(ctx); err == nil {
			r.logger.Info("Account value", slog.String("total_usd", values["TOTAL"].String()))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.cfg.Delay):
		}
	}
}

// evaluate runs one cycle: value the holding, subtract the reserve, and sell
// the excess over principal once it clears the rake threshold. Returns the
// USD amount sold, zero on hold.
func (r *Rake) evaluate(ctx context.Context) (decimal.Decimal, error) {
	value, err := r.executor.BalanceUSD(ctx, r.cfg.Ticker)
	if err != nil {
		return decimal.Zero, err
	}

	tracked := value.Sub(r.reserve)
	threshold := r.cfg.Principal.Add(r.cfg.Rake)
	if !tracked.GreaterThan(threshold) {
		r.logger.Debug("Holding",
			slog.String("tracked", tracked.String()),
			slog.String("threshold", threshold.String()))
		return decimal.Zero, nil
	}

	profit := domain.TruncateUSD(tracked.Sub(r.cfg.Principal))
	if r.metrics != nil {
		r.metrics.RecordSellTriggered()
	}
	r.logger.Info("Rake threshold crossed",
		slog.String("tracked", tracked.String()),
		slog.String("profit", profit.String()))

	result, err := r.executor.Sell(ctx, r.cfg.Ticker, profit)
	if err != nil {
		return decimal.Zero, err
	}
	r.logger.Info("Rake sell settled",
		slog.String("oid", result.OrderID),
		slog.String("proceeds", result.Filled.String()),
		slog.Duration("elapsed", result.Elapsed))
	return profit, nil
}

// logCycleError classifies a cycle failure. Retriable transport problems and
// order-level failures both leave the position intact, so the loop keeps
// going either way; the log level reflects severity.
func (r *Rake) logCycleError(err error) {
	if r.metrics != nil {
		r.metrics.RecordError()
	}

	var rejected *domain.RejectedError
	var notFilled *domain.NotFilledError
	var settlement *domain.SettlementTimeoutError
	switch {
	case domain.IsRetriable(err):
		r.logger.Warn("Transient cycle failure", slog.Any("error", err))
	case errors.As(err, &rejected):
		r.logger.Error("Order rejected", slog.String("detail", rejected.Detail))
	case errors.As(err, &notFilled):
		r.logger.Error("Order did not fill", slog.String("status", string(notFilled.Status)))
	case errors.As(err, &settlement):
		r.logger.Error("Settlement wait exceeded",
			slog.String("oid", settlement.OrderID),
			slog.Duration("waited", settlement.Waited))
	default:
		r.logger.Error("Cycle failed", slog.Any("error", err))
	}
}
