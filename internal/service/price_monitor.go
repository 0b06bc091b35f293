package service

import (
	"context"
	"log/slog"
	"sync"

	"rakebot/internal/domain"
)

// PriceMonitor manages the latest streamed price per product and evaluates
// price alerts against it. It is display-only: the trading path reads prices
// over REST and never consults this state.
type PriceMonitor struct {
	mu         sync.RWMutex
	latest     map[string]domain.Ticker
	alerts     []*domain.AlertConfig
	tickerChan chan domain.Ticker
	logger     *slog.Logger
}

// NewPriceMonitor creates a monitor with the given alerts armed.
func NewPriceMonitor(alerts []*domain.AlertConfig) *PriceMonitor {
	return &PriceMonitor{
		latest:     make(map[string]domain.Ticker),
		alerts:     alerts,
		tickerChan: make(chan domain.Ticker, 1000),
		logger:     slog.Default().With("module", "price_monitor"),
	}
}

// TickerChan returns the channel the stream worker feeds.
func (m *PriceMonitor) TickerChan() chan domain.Ticker {
	return m.tickerChan
}

// Last returns the most recent ticker for a product, if any.
func (m *PriceMonitor) Last(productID string) (domain.Ticker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.latest[productID]
	return t, ok
}

// Start launches the background consumer. It runs until ctx is cancelled.
func (m *PriceMonitor) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ticker := <-m.tickerChan:
				m.process(ticker)
			}
		}
	}()
}

func (m *PriceMonitor) process(ticker domain.Ticker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latest[ticker.ProductID] = ticker

	for _, alert := range m.alerts {
		if !alert.IsActive() || domain.ProductID(alert.Ticker) != ticker.ProductID {
			continue
		}
		if alert.CheckCondition(ticker.Price) {
			m.logger.Info("Price alert triggered",
				slog.String("ticker", alert.Ticker),
				slog.String("direction", alert.Direction),
				slog.String("target", alert.TargetPrice.String()),
				slog.String("price", ticker.Price.String()))
			if !alert.Persistent {
				alert.SetActive(false)
			}
		}
	}
}
