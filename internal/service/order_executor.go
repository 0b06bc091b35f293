package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rakebot/internal/domain"
	"rakebot/internal/infra"

	"github.com/shopspring/decimal"
)

// ExecutionResult reports a confirmed settlement.
type ExecutionResult struct {
	OrderID string
	Elapsed time.Duration   // total wait from submission to visible settlement
	Filled  decimal.Decimal // observed balance delta; may differ from the requested size
}

// OrderExecutor drives one market order from submission to confirmed
// settlement. It holds no state between calls; every invocation performs
// submission, then status polling, then balance-delta polling, strictly in
// that order.
type OrderExecutor struct {
	gateway           domain.ExchangeGateway
	pollInterval      time.Duration
	settlementTimeout time.Duration
	metrics           *infra.Metrics
	logger            *slog.Logger
}

// NewOrderExecutor creates an executor over a live or simulated gateway.
func NewOrderExecutor(gateway domain.ExchangeGateway, pollInterval, settlementTimeout time.Duration, metrics *infra.Metrics) *OrderExecutor {
	return &OrderExecutor{
		gateway:           gateway,
		pollInterval:      pollInterval,
		settlementTimeout: settlementTimeout,
		metrics:           metrics,
		logger:            slog.Default().With("module", "order_executor"),
	}
}

// AvailableBalance returns the available balance of a ticker in asset units.
func (e *OrderExecutor) AvailableBalance(ctx context.Context, ticker string) (decimal.Decimal, error) {
	accounts, err := e.gateway.GetAccounts(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return accounts[ticker], nil
}

// BalanceUSD returns the USD value of a ticker's available balance,
// truncated to cents. USD and USDC are returned as-is.
func (e *OrderExecutor) BalanceUSD(ctx context.Context, ticker string) (decimal.Decimal, error) {
	balance, err := e.AvailableBalance(ctx, ticker)
	if err != nil {
		return decimal.Zero, err
	}
	if ticker == "USD" || ticker == "USDC" {
		return domain.TruncateUSD(balance), nil
	}

	product, err := e.gateway.GetProduct(ctx, domain.ProductID(ticker))
	if err != nil {
		return decimal.Zero, err
	}
	return domain.TruncateUSD(balance.Mul(product.Price)), nil
}

// QuantityForUSD converts a USD amount into ticker units at the current
// price, rounded down to the product's base increment.
func (e *OrderExecutor) QuantityForUSD(ctx context.Context, ticker string, usdAmount decimal.Decimal) (decimal.Decimal, error) {
	product, err := e.gateway.GetProduct(ctx, domain.ProductID(ticker))
	if err != nil {
		return decimal.Zero, err
	}
	return domain.TruncateToIncrement(usdAmount.Div(product.Price), product.BaseIncrement), nil
}

// AccountValues returns each ticker's balance valued in USD, plus a "TOTAL"
// entry for the whole account.
func (e *OrderExecutor) AccountValues(ctx context.Context) (map[string]decimal.Decimal, error) {
	accounts, err := e.gateway.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]decimal.Decimal, len(accounts)+1)
	total := decimal.Zero
	for ticker, balance := range accounts {
		var value decimal.Decimal
		if ticker == "USD" || ticker == "USDC" {
			value = domain.TruncateUSD(balance)
		} else {
			product, err := e.gateway.GetProduct(ctx, domain.ProductID(ticker))
			if err != nil {
				// Unknown or delisted asset: skip valuation rather than
				// fail the whole report.
				continue
			}
			value = domain.TruncateUSD(balance.Mul(product.Price))
		}
		result[ticker] = result[ticker].Add(value)
		total = total.Add(value)
	}
	result["TOTAL"] = total
	return result, nil
}

// Buy places a market buy for a USD notional and waits for settlement.
// The ticker balance is watched for the credited fill.
func (e *OrderExecutor) Buy(ctx context.Context, ticker string, usdAmount decimal.Decimal) (ExecutionResult, error) {
	usdBalance, err := e.AvailableBalance(ctx, "USD")
	if err != nil {
		return ExecutionResult{}, err
	}
	if usdAmount.GreaterThan(usdBalance) {
		return ExecutionResult{}, fmt.Errorf("buy %s USD exceeds available %s: %w",
			usdAmount, usdBalance, domain.ErrInsufficientFunds)
	}

	before, err := e.AvailableBalance(ctx, ticker)
	if err != nil {
		return ExecutionResult{}, err
	}

	req := domain.OrderRequest{
		ClientOrderID: domain.NewClientOrderID(ticker, domain.SideBuy),
		ProductID:     domain.ProductID(ticker),
		Side:          domain.SideBuy,
		QuoteSize:     usdAmount,
	}
	return e.submitAndAwait(ctx, req, ticker, before)
}

// Sell places a market sell for a USD notional, converted to a base quantity
// at the current price. The USD balance is watched for the credited
// proceeds.
func (e *OrderExecutor) Sell(ctx context.Context, ticker string, usdAmount decimal.Decimal) (ExecutionResult, error) {
	qty, err := e.QuantityForUSD(ctx, ticker, usdAmount)
	if err != nil {
		return ExecutionResult{}, err
	}
	if !qty.IsPositive() {
		// A notional below the base increment would submit a zero-size
		// order that can never move a balance.
		return ExecutionResult{}, fmt.Errorf("sell %s: notional %s truncates to zero quantity: %w",
			ticker, usdAmount, domain.ErrInsufficientFunds)
	}

	balance, err := e.AvailableBalance(ctx, ticker)
	if err != nil {
		return ExecutionResult{}, err
	}
	if qty.GreaterThan(balance) {
		return ExecutionResult{}, fmt.Errorf("sell %s %s exceeds available %s: %w",
			ticker, qty, balance, domain.ErrInsufficientFunds)
	}

	before, err := e.AvailableBalance(ctx, "USD")
	if err != nil {
		return ExecutionResult{}, err
	}

	req := domain.OrderRequest{
		ClientOrderID: domain.NewClientOrderID(ticker, domain.SideSell),
		ProductID:     domain.ProductID(ticker),
		Side:          domain.SideSell,
		BaseSize:      qty,
	}
	return e.submitAndAwait(ctx, req, "USD", before)
}

// submitAndAwait runs the two-phase wait: poll order status until terminal,
// then poll the credited balance until it moves off the pre-submission
// snapshot. The second phase accounts for settlement lag where the order
// endpoint updates before account balances do, and is bounded by the
// settlement timeout.
func (e *OrderExecutor) submitAndAwait(ctx context.Context, req domain.OrderRequest, watchTicker string, before decimal.Decimal) (ExecutionResult, error) {
	start := time.Now()

	if e.metrics != nil {
		e.metrics.RecordOrderSubmitted()
	}
	ack, err := e.gateway.SubmitMarketOrder(ctx, req)
	if err != nil {
		return ExecutionResult{}, err
	}
	if !ack.Accepted {
		if e.metrics != nil {
			e.metrics.RecordOrderRejected()
		}
		return ExecutionResult{}, &domain.RejectedError{ClientOrderID: req.ClientOrderID, Detail: ack.ErrorDetail}
	}

	// Phase 1: wait for a terminal order status.
	for {
		status, err := e.gateway.GetOrderStatus(ctx, ack.OrderID)
		if err != nil {
			return ExecutionResult{}, err
		}
		e.logger.Debug("Order status", slog.String("oid", ack.OrderID), slog.String("status", string(status)))

		if status == domain.OrderStatusFilled {
			break
		}
		if status.IsTerminal() {
			if e.metrics != nil {
				e.metrics.RecordOrderUnfilled()
			}
			return ExecutionResult{}, &domain.NotFilledError{OrderID: ack.OrderID, Status: status}
		}
		if err := sleepCtx(ctx, e.pollInterval); err != nil {
			return ExecutionResult{}, err
		}
	}

	// Phase 2: wait for the credited balance to visibly move.
	deadline := time.Now().Add(e.settlementTimeout)
	for {
		current, err := e.AvailableBalance(ctx, watchTicker)
		if err != nil {
			return ExecutionResult{}, err
		}
		if !current.Equal(before) {
			elapsed := time.Since(start)
			filled := current.Sub(before)
			if e.metrics != nil {
				e.metrics.RecordOrderFilled(elapsed)
			}
			e.logger.Info("Order settled",
				slog.String("oid", ack.OrderID),
				slog.String("filled", filled.String()),
				slog.Duration("elapsed", elapsed))
			return ExecutionResult{OrderID: ack.OrderID, Elapsed: elapsed, Filled: filled}, nil
		}

		if time.Now().After(deadline) {
			if e.metrics != nil {
				e.metrics.RecordSettlementTimeout()
			}
			return ExecutionResult{}, &domain.SettlementTimeoutError{OrderID: ack.OrderID, Waited: time.Since(start)}
		}
		if err := sleepCtx(ctx, e.pollInterval); err != nil {
			return ExecutionResult{}, err
		}
	}
}

// sleepCtx blocks for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
