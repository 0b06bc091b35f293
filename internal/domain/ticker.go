package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker is a single price observation from the market data stream.
type Ticker struct {
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Time      time.Time       `json:"time"`
}
