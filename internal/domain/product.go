package domain

import "github.com/shopspring/decimal"

// QuoteCurrency is fixed for all price lookups in this bot.
const QuoteCurrency = "USD"

// Product is a tradable pair snapshot. It is fetched per query and never
// cached: price can change between consecutive reads.
type Product struct {
	ID            string          // "BTC-USD"
	Price         decimal.Decimal // quote units per base unit
	BaseIncrement decimal.Decimal // minimum tradable quantity step
}

// ProductID builds the "{BASE}-USD" pair name for a ticker.
func ProductID(ticker string) string {
	return ticker + "-" + QuoteCurrency
}

// TruncateUSD quantizes a quote amount to cents, rounding toward zero.
// Truncation keeps every reported amount at or below what actually settled.
func TruncateUSD(v decimal.Decimal) decimal.Decimal {
	return v.RoundDown(2)
}

// TruncateToIncrement rounds a base quantity down to the nearest multiple of
// the product's base increment. A zero increment leaves the quantity as-is.
func TruncateToIncrement(qty, increment decimal.Decimal) decimal.Decimal {
	if increment.IsZero() {
		return qty
	}
	return qty.Div(increment).Floor().Mul(increment)
}
