package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBalanceBook_CreditDebit(t *testing.T) {
	bb := NewBalanceBook(map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("20"),
	})

	usd := bb.Get("USD")
	if err := usd.Debit(decimal.RequireFromString("5.50")); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	usd.Credit(decimal.RequireFromString("1.25"))

	if !bb.Available("USD").Equal(decimal.RequireFromString("15.75")) {
		t.Errorf("USD = %s, want 15.75", bb.Available("USD"))
	}

	if err := bb.VerifyInvariant(); err != nil {
		t.Errorf("VerifyInvariant: %v", err)
	}
}

func TestBalanceBook_DebitInsufficient(t *testing.T) {
	bb := NewBalanceBook(map[string]decimal.Decimal{
		"BTC": decimal.RequireFromString("0.01"),
	})

	err := bb.Get("BTC").Debit(decimal.RequireFromString("0.02"))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// Rejection must leave the balance untouched.
	if !bb.Available("BTC").Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("BTC = %s, want 0.01", bb.Available("BTC"))
	}
}

func TestBalanceBook_UnknownTickerIsZero(t *testing.T) {
	bb := NewBalanceBook(nil)
	if !bb.Available("ETH").IsZero() {
		t.Error("unknown ticker should report zero")
	}
}

func TestBalanceBook_Snapshot(t *testing.T) {
	bb := NewBalanceBook(map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("100"),
		"BTC": decimal.RequireFromString("0.5"),
	})

	snap := bb.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap))
	}

	// Mutating the book must not change the snapshot.
	bb.Get("USD").Credit(decimal.NewFromInt(50))
	if !snap["USD"].Equal(decimal.RequireFromString("100")) {
		t.Errorf("snapshot USD = %s, want 100", snap["USD"])
	}
}
