package domain

import (
	"time"
)

// StrategyState persists the last computed ratchet point of a strategy run.
// Reserve is only ever recalculated on an explicit re-initialization, so the
// previous value is kept around for the operator to compare against.
// Decimal fields are stored as strings to keep exact values in SQLite.
type StrategyState struct {
	Ticker    string    `gorm:"primaryKey" json:"ticker"`
	Principal string    `json:"principal"`
	Reserve   string    `json:"reserve"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppConfig represents user-specific configuration (Key-Value)
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
