package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ordersSubmitted    atomic.Uint64
	ordersFilled       atomic.Uint64
	ordersRejected     atomic.Uint64
	ordersUnfilled     atomic.Uint64
	settlementTimeouts atomic.Uint64
	sellsTriggered     atomic.Uint64
	errorsTotal        atomic.Uint64

	// Settlement wait tracking
	waitSumNs atomic.Int64
	waitCount atomic.Uint64

	// Gauges
	streamConnected atomic.Int32 // 1 = connected, 0 = disconnected
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordOrderSubmitted records an order handed to a gateway.
func (m *Metrics) RecordOrderSubmitted() {
	m.ordersSubmitted.Add(1)
}

// RecordOrderFilled records a settled order and its total wait duration.
func (m *Metrics) RecordOrderFilled(wait time.Duration) {
	m.ordersFilled.Add(1)
	m.waitSumNs.Add(wait.Nanoseconds())
	m.waitCount.Add(1)
}

// RecordOrderRejected records an order declined at submission.
func (m *Metrics) RecordOrderRejected() {
	m.ordersRejected.Add(1)
}

// RecordOrderUnfilled records an order that ended terminal without filling.
func (m *Metrics) RecordOrderUnfilled() {
	m.ordersUnfilled.Add(1)
}

// RecordSettlementTimeout records a filled order whose balance never settled
// within the bound.
func (m *Metrics) RecordSettlementTimeout() {
	m.settlementTimeouts.Add(1)
}

// RecordSellTriggered records a strategy cycle that decided to sell.
func (m *Metrics) RecordSellTriggered() {
	m.sellsTriggered.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// SetStreamConnected sets the market data stream state (true = connected).
func (m *Metrics) SetStreamConnected(connected bool) {
	if connected {
		m.streamConnected.Store(1)
	} else {
		m.streamConnected.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	OrdersSubmitted    uint64
	OrdersFilled       uint64
	OrdersRejected     uint64
	OrdersUnfilled     uint64
	SettlementTimeouts uint64
	SellsTriggered     uint64
	ErrorsTotal        uint64
	AvgWaitNs          int64
	StreamConnected    bool
	Timestamp          time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgWait int64
	count := m.waitCount.Load()
	if count > 0 {
		avgWait = m.waitSumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		OrdersSubmitted:    m.ordersSubmitted.Load(),
		OrdersFilled:       m.ordersFilled.Load(),
		OrdersRejected:     m.ordersRejected.Load(),
		OrdersUnfilled:     m.ordersUnfilled.Load(),
		SettlementTimeouts: m.settlementTimeouts.Load(),
		SellsTriggered:     m.sellsTriggered.Load(),
		ErrorsTotal:        m.errorsTotal.Load(),
		AvgWaitNs:          avgWait,
		StreamConnected:    m.streamConnected.Load() == 1,
		Timestamp:          time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ordersSubmitted.Store(0)
	m.ordersFilled.Store(0)
	m.ordersRejected.Store(0)
	m.ordersUnfilled.Store(0)
	m.settlementTimeouts.Store(0)
	m.sellsTriggered.Store(0)
	m.errorsTotal.Store(0)
	m.waitSumNs.Store(0)
	m.waitCount.Store(0)
	m.streamConnected.Store(0)
}
