package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"rakebot/internal/domain"
	"rakebot/internal/infra"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	maxRetries  = 10
	readTimeout = 60 * time.Second
)

// TickerWorker streams live prices from the Coinbase market data channel.
// It feeds the price monitor only; the trading path always uses fresh REST
// product reads.
type TickerWorker struct {
	wsURL      string
	productIDs []string
	inbox      chan<- domain.Ticker
	metrics    *infra.Metrics
	conn       *websocket.Conn
	mu         sync.RWMutex
	writeMu    sync.Mutex
	connected  bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewTickerWorker creates a new market data stream worker
func NewTickerWorker(wsURL string, productIDs []string, inbox chan<- domain.Ticker, metrics *infra.Metrics) *TickerWorker {
	if wsURL == "" {
		wsURL = DefaultWSURL
	}
	return &TickerWorker{
		wsURL:      wsURL,
		productIDs: productIDs,
		inbox:      inbox,
		metrics:    metrics,
	}
}

// Connect starts the WebSocket connection
func (w *TickerWorker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

func (w *TickerWorker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			slog.Warn("Coinbase stream connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			w.readLoop(ctx)
		}
	}
}

func (w *TickerWorker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := make(http.Header)

	conn, _, err := dialer.DialContext(ctx, w.wsURL, header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return err
	}

	if w.metrics != nil {
		w.metrics.SetStreamConnected(true)
	}
	slog.Info("Coinbase stream connected", slog.Int("subs", len(w.productIDs)))
	return nil
}

func (w *TickerWorker) subscribe() error {
	msg := wsSubscribeRequest{
		Type:       "subscribe",
		ProductIDs: w.productIDs,
		Channel:    "ticker",
	}
	b, _ := json.Marshal(msg)
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *TickerWorker) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(msgType, data)
}

func (w *TickerWorker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Capture the conn under the lock; Disconnect may nil the field
		// while this loop is blocked in a read.
		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, msg, err := conn.ReadMessage()
		if err != nil {
			w.closeConnection()
			return
		}
		w.handleMessage(msg)
	}
}

func (w *TickerWorker) handleMessage(msg []byte) {
	var resp wsMessage
	if json.Unmarshal(msg, &resp) != nil || resp.Channel != "ticker" {
		return
	}

	now := time.Now()
	if ts, err := time.Parse(time.RFC3339Nano, resp.Timestamp); err == nil {
		now = ts
	}

	for _, ev := range resp.Events {
		for _, tick := range ev.Tickers {
			price, err := decimal.NewFromString(tick.Price)
			if err != nil {
				continue
			}
			t := domain.Ticker{
				ProductID: tick.ProductID,
				Price:     price,
				Time:      now,
			}
			select {
			case w.inbox <- t:
			default: // DROP
			}
		}
	}
}

func (w *TickerWorker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
	if w.metrics != nil {
		w.metrics.SetStreamConnected(false)
	}
}

// Disconnect stops the worker and closes the connection.
func (w *TickerWorker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
