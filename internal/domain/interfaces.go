package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeGateway is the capability surface the executor and strategy need
// from a trading venue. It is implemented by the live Coinbase client and by
// the in-memory paper gateway; both must behave identically from the
// caller's point of view.
type ExchangeGateway interface {
	// GetProduct returns the current price and base increment for a pair.
	// Results are never cached; price can change between consecutive calls.
	GetProduct(ctx context.Context, productID string) (Product, error)

	// GetAccounts returns available balances keyed by ticker.
	GetAccounts(ctx context.Context) (map[string]decimal.Decimal, error)

	// SubmitMarketOrder places a market order and reports acceptance.
	SubmitMarketOrder(ctx context.Context, req OrderRequest) (OrderAck, error)

	// GetOrderStatus looks up the status of a previously submitted order.
	GetOrderStatus(ctx context.Context, orderID string) (OrderStatus, error)

	// GetServerTime returns the venue's clock. Display and logging only.
	GetServerTime(ctx context.Context) (time.Time, error)
}

// ProductSource is the read-only slice of ExchangeGateway the paper gateway
// delegates price lookups to, so paper balances settle at live prices.
type ProductSource interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
}
