package coinbase

// Wire shapes for the Coinbase Advanced Trade REST API. Monetary values
// arrive as strings and are converted to decimals at the boundary.

type productResponse struct {
	ProductID     string `json:"product_id"`
	Price         string `json:"price"`
	BaseIncrement string `json:"base_increment"`
	QuoteCurrency string `json:"quote_currency_id"`
	BaseCurrency  string `json:"base_currency_id"`
}

type accountsResponse struct {
	Accounts []struct {
		Currency         string `json:"currency"`
		AvailableBalance struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"available_balance"`
	} `json:"accounts"`
	HasNext bool   `json:"has_next"`
	Cursor  string `json:"cursor"`
}

type createOrderRequest struct {
	ClientOrderID      string             `json:"client_order_id"`
	ProductID          string             `json:"product_id"`
	Side               string             `json:"side"`
	OrderConfiguration orderConfiguration `json:"order_configuration"`
}

type orderConfiguration struct {
	MarketMarketIOC marketMarketIOC `json:"market_market_ioc"`
}

type marketMarketIOC struct {
	QuoteSize string `json:"quote_size,omitempty"`
	BaseSize  string `json:"base_size,omitempty"`
}

type createOrderResponse struct {
	Success         bool `json:"success"`
	SuccessResponse struct {
		OrderID   string `json:"order_id"`
		ProductID string `json:"product_id"`
	} `json:"success_response"`
	ErrorResponse struct {
		Error        string `json:"error"`
		Message      string `json:"message"`
		ErrorDetails string `json:"error_details"`
	} `json:"error_response"`
}

type historicalOrderResponse struct {
	Order struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	} `json:"order"`
}

type serverTimeResponse struct {
	EpochSeconds string `json:"epochSeconds"`
}

// wsSubscribeRequest subscribes to the ticker channel for a set of products.
type wsSubscribeRequest struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channel    string   `json:"channel"`
}

// wsMessage is the envelope for market data stream messages.
type wsMessage struct {
	Channel   string    `json:"channel"`
	Timestamp string    `json:"timestamp"`
	Events    []wsEvent `json:"events"`
}

type wsEvent struct {
	Type    string     `json:"type"`
	Tickers []wsTicker `json:"tickers"`
}

type wsTicker struct {
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
}
