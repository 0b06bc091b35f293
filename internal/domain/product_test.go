package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestProductID(t *testing.T) {
	if got := ProductID("BTC"); got != "BTC-USD" {
		t.Errorf("ProductID = %q, want BTC-USD", got)
	}
}

func TestTruncateUSD(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"exact cents unchanged", "100.00", "100"},
		{"truncates never rounds up", "0.019999", "0.01"},
		{"truncates high precision", "120.19999999", "120.19"},
		{"sub-cent truncates to zero", "0.0099", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := decimal.RequireFromString(tc.in)
			got := TruncateUSD(in)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Errorf("TruncateUSD(%s) = %s, want %s", tc.in, got, tc.want)
			}
			if got.GreaterThan(in) {
				t.Errorf("TruncateUSD(%s) = %s exceeds input", tc.in, got)
			}
		})
	}
}

func TestTruncateToIncrement(t *testing.T) {
	inc := decimal.RequireFromString("0.00000001")

	t.Run("buy notional over price", func(t *testing.T) {
		// 100.00 / 50000.00 = 0.002 exactly
		qty := decimal.RequireFromString("100.00").Div(decimal.RequireFromString("50000.00"))
		got := TruncateToIncrement(qty, inc)
		if !got.Equal(decimal.RequireFromString("0.002")) {
			t.Errorf("qty = %s, want 0.002", got)
		}
	})

	t.Run("rounds down not nearest", func(t *testing.T) {
		qty := decimal.RequireFromString("0.000000019")
		got := TruncateToIncrement(qty, inc)
		if !got.Equal(inc) {
			t.Errorf("qty = %s, want %s", got, inc)
		}
	})

	t.Run("coarse increment", func(t *testing.T) {
		got := TruncateToIncrement(decimal.RequireFromString("7.9"), decimal.RequireFromString("0.5"))
		if !got.Equal(decimal.RequireFromString("7.5")) {
			t.Errorf("qty = %s, want 7.5", got)
		}
	})

	t.Run("zero increment passes through", func(t *testing.T) {
		qty := decimal.RequireFromString("1.23456")
		got := TruncateToIncrement(qty, decimal.Zero)
		if !got.Equal(qty) {
			t.Errorf("qty = %s, want %s", got, qty)
		}
	})
}
