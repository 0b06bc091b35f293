package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderStatus is the lifecycle state of an order as reported by a gateway.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusExpired   OrderStatus = "EXPIRED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// IsTerminal reports whether the status can never change again.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusExpired, OrderStatusFailed:
		return true
	}
	return false
}

// OrderRequest describes a market order handed to a gateway.
// Exactly one of QuoteSize (buy notional in USD) or BaseSize (sell quantity
// in base units) is set, depending on Side.
type OrderRequest struct {
	ClientOrderID string
	ProductID     string
	Side          Side
	QuoteSize     decimal.Decimal
	BaseSize      decimal.Decimal
}

// OrderAck is the gateway's immediate answer to a submission.
// Accepted == false means the venue declined the order; ErrorDetail carries
// the venue's reason verbatim.
type OrderAck struct {
	Accepted    bool
	OrderID     string
	ErrorDetail string
}

// NewClientOrderID builds a unique client order id from the ticker, side and
// submission time. The uuid suffix disambiguates orders created within the
// same millisecond.
func NewClientOrderID(ticker string, side Side) string {
	return fmt.Sprintf("%s-%s-%d-%s",
		strings.ToLower(string(side)), ticker, time.Now().UnixMilli(), uuid.NewString()[:8])
}
