package settlement

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/polyai/polytrader/internal/journal"
	"github.com/polyai/polytrader/internal/logger"
	"github.com/polyai/polytrader/internal/polymarket"
)

type fakeGateway struct {
	markets map[string]polymarket.Market
	errs    map[string]error
	calls   []string
}

func (f *fakeGateway) GetMarket(_ context.Context, tokenID string) (polymarket.Market, error) {
	f.calls = append(f.calls, tokenID)
	if err, ok := f.errs[tokenID]; ok {
		return polymarket.Market{}, err
	}
	return f.markets[tokenID], nil
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) TradeResult(question string, result journal.Result) bool {
	f.sent = append(f.sent, question+":"+string(result))
	return true
}

func newJournal(t *testing.T) *journal.Store {
	t.Helper()
	return journal.NewStore(filepath.Join(t.TempDir(), "journal.json"))
}

func resolved(question, tokens, prices string) polymarket.Market {
	return polymarket.Market{
		Question:      question,
		Active:        false,
		Closed:        true,
		ClobTokenIDs:  tokens,
		OutcomePrices: prices,
	}
}

func TestRunOnceSettlesResolvedTrades(t *testing.T) {
	store := newJournal(t)
	store.Add(journal.Trade{ID: "t1", TokenID: "111", MarketQuestion: "Q1", AmountUSDC: decimal.NewFromInt(50)})
	store.Add(journal.Trade{ID: "t2", TokenID: "222", MarketQuestion: "Q2", AmountUSDC: decimal.NewFromInt(25)})

	gw := &fakeGateway{markets: map[string]polymarket.Market{
		"111": resolved("Q1", `["111","999"]`, `["0.93","0.07"]`),
		"222": resolved("Q2", `["222","998"]`, `["0.07","0.93"]`),
	}}
	n := &fakeNotifier{}

	m := NewMonitor(store, gw, n, nil, logger.New("error"))
	if settled := m.RunOnce(context.Background()); settled != 2 {
		t.Fatalf("settled = %d, want 2", settled)
	}

	trades := store.All()
	if trades[0].Result != journal.ResultWin || trades[1].Result != journal.ResultLose {
		t.Errorf("results = %s/%s, want WIN/LOSE", trades[0].Result, trades[1].Result)
	}
	if len(n.sent) != 2 {
		t.Errorf("notifications = %v, want 2", n.sent)
	}

	// A second pass finds nothing open and must not re-notify.
	if settled := m.RunOnce(context.Background()); settled != 0 {
		t.Errorf("second pass settled = %d, want 0", settled)
	}
	if len(n.sent) != 2 {
		t.Errorf("second pass re-sent notifications: %v", n.sent)
	}
}

func TestRunOnceSkipsActiveAndUndecidable(t *testing.T) {
	store := newJournal(t)
	store.Add(journal.Trade{ID: "active", TokenID: "111", AmountUSDC: decimal.NewFromInt(1)})
	store.Add(journal.Trade{ID: "missing", TokenID: "222", AmountUSDC: decimal.NewFromInt(1)})
	store.Add(journal.Trade{ID: "no-token", AmountUSDC: decimal.NewFromInt(1)})

	gw := &fakeGateway{markets: map[string]polymarket.Market{
		"111": {Active: true, ClobTokenIDs: `["111"]`, OutcomePrices: `["1"]`},
		"222": resolved("Q", `["998","999"]`, `["1","0"]`),
	}}
	n := &fakeNotifier{}

	m := NewMonitor(store, gw, n, nil, logger.New("error"))
	if settled := m.RunOnce(context.Background()); settled != 0 {
		t.Fatalf("settled = %d, want 0", settled)
	}

	if got := len(store.OpenTrades()); got != 3 {
		t.Errorf("open trades = %d, want all 3 still open", got)
	}
	if len(n.sent) != 0 {
		t.Errorf("unexpected notifications: %v", n.sent)
	}
	// Trades without a token id never hit the gateway.
	if len(gw.calls) != 2 {
		t.Errorf("gateway calls = %v, want 2", gw.calls)
	}
}

func TestRunOnceIsolatesPerTradeFailures(t *testing.T) {
	store := newJournal(t)
	store.Add(journal.Trade{ID: "bad", TokenID: "111", MarketQuestion: "Q1", AmountUSDC: decimal.NewFromInt(1)})
	store.Add(journal.Trade{ID: "good", TokenID: "222", MarketQuestion: "Q2", AmountUSDC: decimal.NewFromInt(1)})

	gw := &fakeGateway{
		markets: map[string]polymarket.Market{
			"222": resolved("Q2", `["222"]`, `["0.8"]`),
		},
		errs: map[string]error{"111": errors.New("gateway down")},
	}
	n := &fakeNotifier{}

	m := NewMonitor(store, gw, n, nil, logger.New("error"))
	if settled := m.RunOnce(context.Background()); settled != 1 {
		t.Fatalf("settled = %d, want 1", settled)
	}

	open := store.OpenTrades()
	if len(open) != 1 || open[0].ID != "bad" {
		t.Errorf("open = %+v, want only the failing trade", open)
	}
}
