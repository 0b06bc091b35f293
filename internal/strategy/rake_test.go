package strategy

import (
	"context"
	"testing"
	"time"

	"rakebot/internal/domain"
	"rakebot/internal/execution"
	"rakebot/internal/service"

	"github.com/shopspring/decimal"
)

// mutableProducts lets a test move the market between cycles.
type mutableProducts struct {
	price decimal.Decimal
}

func (m *mutableProducts) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	return domain.Product{ID: productID, Price: m.price, BaseIncrement: decimal.RequireFromString("0.00000001")}, nil
}

type capturingStore struct {
	saved *domain.StrategyState
	gets  int
}

func (s *capturingStore) SaveStrategyState(state *domain.StrategyState) error {
	s.saved = state
	return nil
}

func (s *capturingStore) GetStrategyState(ticker string) (*domain.StrategyState, error) {
	s.gets++
	return s.saved, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newTestRake builds a rake over a paper account holding btc at the given
// price, with 0 USD.
func newTestRake(t *testing.T, btc, price, principal, rake string) (*Rake, *execution.PaperGateway, *mutableProducts, *capturingStore) {
	t.Helper()
	products := &mutableProducts{price: dec(price)}
	paper := execution.NewPaperGateway(products, map[string]decimal.Decimal{
		"USD": decimal.Zero,
		"BTC": dec(btc),
	})
	executor := service.NewOrderExecutor(paper, time.Millisecond, time.Second, nil)
	store := &capturingStore{}

	cfg := RakeConfig{
		Ticker:    "BTC",
		Principal: dec(principal),
		Rake:      dec(rake),
		Delay:     time.Millisecond,
	}
	return NewRake(cfg, paper, executor, store, nil), paper, products, store
}

func TestRake_InitComputesReserve(t *testing.T) {
	// 0.002 BTC at 60000 is worth 120.00; principal 100 leaves a 20 reserve.
	rake, _, _, store := newTestRake(t, "0.002", "60000", "100", "0.15")

	if err := rake.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !rake.Reserve().Equal(dec("20")) {
		t.Errorf("Expected reserve 20, got %s", rake.Reserve())
	}

	if store.saved == nil {
		t.Fatal("Expected strategy state to be persisted")
	}
	if store.saved.Ticker != "BTC" || store.saved.Reserve != "20" {
		t.Errorf("Unexpected persisted state: %+v", store.saved)
	}
}

func TestRake_InitReadsPriorStateBeforeOverwriting(t *testing.T) {
	rake, _, _, store := newTestRake(t, "0.002", "60000", "100", "0.15")
	store.saved = &domain.StrategyState{Ticker: "BTC", Principal: "100", Reserve: "5"}

	if err := rake.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if store.gets == 0 {
		t.Error("Expected Init to load the prior persisted state")
	}
	if store.saved.Reserve != "20" {
		t.Errorf("Expected fresh reserve 20 to replace prior state, got %s", store.saved.Reserve)
	}
}

func TestRake_InitClampsNegativeReserve(t *testing.T) {
	// Holding worth 60 against a 100 principal: reserve clamps to zero.
	rake, _, _, _ := newTestRake(t, "0.001", "60000", "100", "0.15")

	if err := rake.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !rake.Reserve().IsZero() {
		t.Errorf("Expected zero reserve, got %s", rake.Reserve())
	}
}

func TestRake_HoldsWithinThreshold(t *testing.T) {
	rake, paper, products, _ := newTestRake(t, "0.002", "60000", "100", "0.15")
	ctx := context.Background()

	if err := rake.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// Tracked value is exactly the principal; then a bump to 120.10 keeps
	// tracked at 100.10, still inside the 0.15 rake.
	for _, price := range []string{"60000", "60050"} {
		products.price = dec(price)
		sold, err := rake.evaluate(ctx)
		if err != nil {
			t.Fatalf("evaluate at %s failed: %v", price, err)
		}
		if !sold.IsZero() {
			t.Errorf("Expected hold at price %s, sold %s", price, sold)
		}
	}
	if len(paper.Fills()) != 0 {
		t.Errorf("Expected no fills, got %d", len(paper.Fills()))
	}
}

func TestRake_SellsExcessOverThreshold(t *testing.T) {
	rake, paper, products, _ := newTestRake(t, "0.002", "60000", "100", "0.15")
	ctx := context.Background()

	if err := rake.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// 0.002 BTC at 60100 is worth 120.20; tracked 100.20 clears the 100.15
	// threshold and the 0.20 excess is sold.
	products.price = dec("60100")
	sold, err := rake.evaluate(ctx)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !sold.Equal(dec("0.20")) {
		t.Errorf("Expected to sell 0.20 USD, got %s", sold)
	}

	fills := paper.Fills()
	if len(fills) != 1 {
		t.Fatalf("Expected 1 fill, got %d", len(fills))
	}
	if fills[0].Side != domain.SideSell {
		t.Errorf("Expected SELL, got %s", fills[0].Side)
	}

	accounts, err := paper.GetAccounts(ctx)
	if err != nil {
		t.Fatalf("GetAccounts failed: %v", err)
	}
	if !accounts["USD"].IsPositive() {
		t.Error("Expected USD proceeds from the rake sell")
	}
	if !accounts["BTC"].LessThan(dec("0.002")) {
		t.Error("Expected BTC position to shrink")
	}
}

func TestRake_RunStopsOnCancel(t *testing.T) {
	rake, _, _, _ := newTestRake(t, "0.002", "60000", "100", "0.15")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := rake.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- rake.Run(ctx) }()

	select {
	case err := <-done:
		if err != context.DeadlineExceeded {
			t.Errorf("Expected DeadlineExceeded, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}
