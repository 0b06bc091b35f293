package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Balance is the available amount of a single asset.
type Balance struct {
	Ticker string
	Amount decimal.Decimal
}

// Credit adds funds to the balance.
func (b *Balance) Credit(amount decimal.Decimal) {
	b.Amount = b.Amount.Add(amount)
}

// Debit removes funds. It fails with ErrInsufficientFunds before mutating
// anything when the requested amount exceeds what is available.
func (b *Balance) Debit(amount decimal.Decimal) error {
	if amount.GreaterThan(b.Amount) {
		return fmt.Errorf("debit %s %s exceeds available %s: %w",
			b.Ticker, amount, b.Amount, ErrInsufficientFunds)
	}
	b.Amount = b.Amount.Sub(amount)
	return nil
}

// BalanceBook holds the balances of an account keyed by ticker.
// It is not safe for concurrent use; callers serialize access.
type BalanceBook struct {
	balances map[string]*Balance
}

// NewBalanceBook creates a book seeded with the given endowments.
func NewBalanceBook(initial map[string]decimal.Decimal) *BalanceBook {
	bb := &BalanceBook{balances: make(map[string]*Balance)}
	for ticker, amount := range initial {
		bb.balances[ticker] = &Balance{Ticker: ticker, Amount: amount}
	}
	return bb
}

// Get returns the balance for a ticker, creating a zero entry if missing.
func (bb *BalanceBook) Get(ticker string) *Balance {
	b, ok := bb.balances[ticker]
	if !ok {
		b = &Balance{Ticker: ticker}
		bb.balances[ticker] = b
	}
	return b
}

// Available returns the amount held for a ticker, zero if unknown.
func (bb *BalanceBook) Available(ticker string) decimal.Decimal {
	if b, ok := bb.balances[ticker]; ok {
		return b.Amount
	}
	return decimal.Zero
}

// Snapshot returns a copy of all balances.
func (bb *BalanceBook) Snapshot() map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal, len(bb.balances))
	for ticker, b := range bb.balances {
		result[ticker] = b.Amount
	}
	return result
}

// VerifyInvariant checks that no balance has gone negative.
func (bb *BalanceBook) VerifyInvariant() error {
	for ticker, b := range bb.balances {
		if b.Amount.IsNegative() {
			return fmt.Errorf("balance invariant violated: %s = %s", ticker, b.Amount)
		}
	}
	return nil
}
