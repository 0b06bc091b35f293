package domain

import (
	"errors"
	"fmt"
	"time"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a transport-level gateway failure. These are the
// only errors the live gateway retries, with bounded exponential backoff.
type NetworkError struct {
	Op        string // Operation that failed (e.g., "get_product", "submit_order")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrInsufficientFunds is returned before a gateway is contacted when the
	// requested size exceeds the known balance, and by the paper gateway when
	// an order would overdraw the simulated account. Not retriable; the
	// strategy holds and re-evaluates on its next cycle.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnknownProduct is returned when a ticker pair is not listed on the
	// venue. Fatal to the calling operation, not retried.
	ErrUnknownProduct = errors.New("unknown product")
)

// RejectedError means the gateway declined the order at submission time.
// No polling happens after a rejection.
type RejectedError struct {
	ClientOrderID string
	Detail        string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("order %s rejected: %s", e.ClientOrderID, e.Detail)
}

func (e *RejectedError) IsRetriable() bool {
	return false
}

// NotFilledError means the order reached a terminal state other than FILLED.
type NotFilledError struct {
	OrderID string
	Status  OrderStatus
}

func (e *NotFilledError) Error() string {
	return fmt.Sprintf("order %s ended %s without filling", e.OrderID, e.Status)
}

func (e *NotFilledError) IsRetriable() bool {
	return false
}

// SettlementTimeoutError means an order filled but the credited balance never
// visibly moved within the configured bound.
type SettlementTimeoutError struct {
	OrderID string
	Waited  time.Duration
}

func (e *SettlementTimeoutError) Error() string {
	return fmt.Sprintf("order %s filled but balance did not settle within %s", e.OrderID, e.Waited)
}

func (e *SettlementTimeoutError) IsRetriable() bool {
	return false
}
