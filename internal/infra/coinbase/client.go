package coinbase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"rakebot/internal/domain"
	"rakebot/internal/infra"

	"github.com/shopspring/decimal"
)

// Coinbase Advanced Trade API constants
const (
	DefaultRestURL = "https://api.coinbase.com"
	DefaultWSURL   = "wss://advanced-trade-ws.coinbase.com"

	maxAttempts = 3
)

// Client is the Coinbase REST API client (boundary layer). It implements
// domain.ExchangeGateway for live trading.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *Signer
	logger     *slog.Logger
}

var _ domain.ExchangeGateway = (*Client)(nil)

// NewClient creates a new Coinbase API client.
func NewClient(cfg *infra.Config) *Client {
	baseURL := cfg.API.Coinbase.RestURL
	if baseURL == "" {
		baseURL = DefaultRestURL
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		signer: NewSigner(cfg.API.Coinbase.Key, cfg.API.Coinbase.Secret),
		logger: slog.Default().With("module", "coinbase_client"),
	}
}

// apiError is a non-2xx venue response. Never retried on 4xx.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("coinbase api error: status=%d body=%s", e.Status, e.Body)
}

// GetProduct fetches the current price and base increment for a pair.
func (c *Client) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	var resp productResponse
	err := c.getJSON(ctx, "get_product", http.MethodGet, "/api/v3/brokerage/products/"+productID, nil, &resp)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return domain.Product{}, fmt.Errorf("%s: %w", productID, domain.ErrUnknownProduct)
		}
		return domain.Product{}, err
	}

	price, err := decimal.NewFromString(resp.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse price %q: %w", resp.Price, err)
	}
	increment, err := decimal.NewFromString(resp.BaseIncrement)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse base_increment %q: %w", resp.BaseIncrement, err)
	}

	return domain.Product{ID: productID, Price: price, BaseIncrement: increment}, nil
}

// GetAccounts returns available balances keyed by ticker, following the
// pagination cursor until exhausted.
func (c *Client) GetAccounts(ctx context.Context) (map[string]decimal.Decimal, error) {
	balances := make(map[string]decimal.Decimal)
	cursor := ""

	for {
		path := "/api/v3/brokerage/accounts?limit=250"
		if cursor != "" {
			path += "&cursor=" + cursor
		}

		var resp accountsResponse
		if err := c.getJSON(ctx, "get_accounts", http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}

		for _, acc := range resp.Accounts {
			value, err := decimal.NewFromString(acc.AvailableBalance.Value)
			if err != nil {
				return nil, fmt.Errorf("parse balance %s %q: %w", acc.Currency, acc.AvailableBalance.Value, err)
			}
			balances[acc.Currency] = value
		}

		if !resp.HasNext {
			return balances, nil
		}
		cursor = resp.Cursor
	}
}

// SubmitMarketOrder places a market IOC order. Buy orders carry a quote
// notional, sell orders a base quantity. Retries are idempotent on the venue
// side because the client order id is reused.
func (c *Client) SubmitMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderAck, error) {
	ioc := marketMarketIOC{}
	switch req.Side {
	case domain.SideBuy:
		ioc.QuoteSize = req.QuoteSize.String()
	case domain.SideSell:
		ioc.BaseSize = req.BaseSize.String()
	default:
		return domain.OrderAck{}, fmt.Errorf("unknown order side: %s", req.Side)
	}

	body := createOrderRequest{
		ClientOrderID:      req.ClientOrderID,
		ProductID:          req.ProductID,
		Side:               string(req.Side),
		OrderConfiguration: orderConfiguration{MarketMarketIOC: ioc},
	}

	var resp createOrderResponse
	if err := c.getJSON(ctx, "submit_order", http.MethodPost, "/api/v3/brokerage/orders", body, &resp); err != nil {
		return domain.OrderAck{}, err
	}

	if !resp.Success {
		detail := resp.ErrorResponse.Message
		if detail == "" {
			detail = resp.ErrorResponse.Error
		}
		if resp.ErrorResponse.ErrorDetails != "" {
			detail += ": " + resp.ErrorResponse.ErrorDetails
		}
		return domain.OrderAck{Accepted: false, ErrorDetail: detail}, nil
	}

	c.logger.Info("Order placed",
		slog.String("oid", resp.SuccessResponse.OrderID),
		slog.String("client_oid", req.ClientOrderID),
		slog.String("product", req.ProductID))

	return domain.OrderAck{Accepted: true, OrderID: resp.SuccessResponse.OrderID}, nil
}

// GetOrderStatus looks up the status of a previously submitted order.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	var resp historicalOrderResponse
	err := c.getJSON(ctx, "get_order_status", http.MethodGet, "/api/v3/brokerage/orders/historical/"+orderID, nil, &resp)
	if err != nil {
		return "", err
	}
	return mapOrderStatus(resp.Order.Status), nil
}

// GetServerTime returns the venue's clock.
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	var resp serverTimeResponse
	if err := c.getJSON(ctx, "get_server_time", http.MethodGet, "/api/v3/brokerage/time", nil, &resp); err != nil {
		return time.Time{}, err
	}

	epoch, err := strconv.ParseInt(resp.EpochSeconds, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse epochSeconds %q: %w", resp.EpochSeconds, err)
	}
	return time.Unix(epoch, 0).UTC(), nil
}

// mapOrderStatus converts venue status strings to the domain status set.
// Anything non-terminal and unrecognized is treated as still pending.
func mapOrderStatus(s string) domain.OrderStatus {
	switch s {
	case "FILLED":
		return domain.OrderStatusFilled
	case "CANCELLED":
		return domain.OrderStatusCancelled
	case "EXPIRED":
		return domain.OrderStatusExpired
	case "FAILED":
		return domain.OrderStatusFailed
	default:
		return domain.OrderStatusPending
	}
}

// getJSON performs a signed request with bounded retries. Transport failures
// and 5xx responses are retried with exponential backoff; 4xx responses and
// context cancellation are not.
func (c *Client) getJSON(ctx context.Context, op, method, path string, body interface{}, out interface{}) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := infra.CalculateBackoff(attempt - 1)
			c.logger.Warn("Retrying request",
				slog.String("op", op), slog.Int("attempt", attempt), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		respBody, status, err := c.doRequest(ctx, method, path, bodyBytes)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = domain.NewNetworkError(op, err)
			continue
		}

		if status >= 500 {
			lastErr = domain.NewNetworkError(op, &apiError{Status: status, Body: string(respBody)})
			continue
		}
		if status != http.StatusOK {
			return &apiError{Status: status, Body: string(respBody)}
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("%s: parse response: %w", op, err)
			}
		}
		return nil
	}

	return lastErr
}

// doRequest handles auth headers and serialization for a single attempt.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, 0, err
	}

	headers := c.signer.GenerateHeaders(method, path, string(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	return respBody, resp.StatusCode, nil
}
