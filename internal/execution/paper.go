package execution

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"rakebot/internal/domain"

	"github.com/shopspring/decimal"
)

// Fill is a settled paper order, kept in memory for inspection.
type Fill struct {
	OrderID   string
	ProductID string
	Side      domain.Side
	Quantity  decimal.Decimal // base units
	Price     decimal.Decimal // quote per base at settlement
	Notional  decimal.Decimal // USD moved, truncated to cents
	Time      time.Time
}

// PaperGateway reproduces exchange settlement semantics in memory. Orders
// settle synchronously at the live price, so executor logic behaves the same
// against it as against the real venue — except that fills are instant.
// Price lookups delegate to a real ProductSource; the simulator never invents
// prices.
type PaperGateway struct {
	products domain.ProductSource

	mu    sync.Mutex
	book  *domain.BalanceBook
	fills []Fill

	now    func() time.Time
	logger *slog.Logger
}

var _ domain.ExchangeGateway = (*PaperGateway)(nil)

// NewPaperGateway creates a simulated gateway seeded with initial balances.
func NewPaperGateway(products domain.ProductSource, balances map[string]decimal.Decimal) *PaperGateway {
	return &PaperGateway{
		products: products,
		book:     domain.NewBalanceBook(balances),
		now:      time.Now,
		logger:   slog.Default().With("module", "paper_gateway"),
	}
}

// GetProduct delegates to the real product endpoint so paper trading tracks
// live market movement.
func (g *PaperGateway) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	return g.products.GetProduct(ctx, productID)
}

// GetAccounts returns a snapshot of the simulated balances.
func (g *PaperGateway) GetAccounts(ctx context.Context) (map[string]decimal.Decimal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.book.Snapshot(), nil
}

// SubmitMarketOrder applies the order's balance effects atomically and
// returns a synthetic order that is already FILLED. Orders that would
// overdraw a balance are rejected with ErrInsufficientFunds before any
// mutation.
func (g *PaperGateway) SubmitMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderAck, error) {
	base, _, ok := strings.Cut(req.ProductID, "-")
	if !ok {
		return domain.OrderAck{}, fmt.Errorf("%s: %w", req.ProductID, domain.ErrUnknownProduct)
	}

	// Price lookup happens outside the balance lock; the live endpoint may
	// block and the book must stay readable meanwhile.
	product, err := g.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return domain.OrderAck{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var fill Fill
	switch req.Side {
	case domain.SideSell:
		qty := req.BaseSize
		if qty.GreaterThan(g.book.Available(base)) {
			return domain.OrderAck{}, fmt.Errorf("sell %s %s exceeds available %s: %w",
				base, qty, g.book.Available(base), domain.ErrInsufficientFunds)
		}
		proceeds := domain.TruncateUSD(qty.Mul(product.Price))
		if err := g.book.Get(base).Debit(qty); err != nil {
			return domain.OrderAck{}, err
		}
		g.book.Get(domain.QuoteCurrency).Credit(proceeds)
		fill = Fill{Side: domain.SideSell, Quantity: qty, Notional: proceeds}

	case domain.SideBuy:
		notional := req.QuoteSize
		if notional.GreaterThan(g.book.Available(domain.QuoteCurrency)) {
			return domain.OrderAck{}, fmt.Errorf("buy %s USD exceeds available %s: %w",
				notional, g.book.Available(domain.QuoteCurrency), domain.ErrInsufficientFunds)
		}
		qty := domain.TruncateToIncrement(notional.Div(product.Price), product.BaseIncrement)
		if err := g.book.Get(domain.QuoteCurrency).Debit(domain.TruncateUSD(notional)); err != nil {
			return domain.OrderAck{}, err
		}
		g.book.Get(base).Credit(qty)
		fill = Fill{Side: domain.SideBuy, Quantity: qty, Notional: domain.TruncateUSD(notional)}

	default:
		return domain.OrderAck{}, fmt.Errorf("unknown order side: %s", req.Side)
	}

	fill.OrderID = req.ClientOrderID
	fill.ProductID = req.ProductID
	fill.Price = product.Price
	fill.Time = g.now()
	g.fills = append(g.fills, fill)

	g.logger.Info("Paper fill",
		slog.String("side", string(fill.Side)),
		slog.String("product", fill.ProductID),
		slog.String("qty", fill.Quantity.String()),
		slog.String("price", fill.Price.String()),
		slog.String("notional", fill.Notional.String()))

	return domain.OrderAck{Accepted: true, OrderID: fill.OrderID}, nil
}

// GetOrderStatus always reports FILLED: the simulator settles instantly.
// Known limitation, kept deliberately so the executor's polling path still
// runs against paper mode.
func (g *PaperGateway) GetOrderStatus(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	return domain.OrderStatusFilled, nil
}

// GetServerTime returns the local clock; paper mode has no venue clock.
func (g *PaperGateway) GetServerTime(ctx context.Context) (time.Time, error) {
	return g.now(), nil
}

// Fills returns a copy of all recorded fills.
func (g *PaperGateway) Fills() []Fill {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Fill, len(g.fills))
	copy(out, g.fills)
	return out
}
