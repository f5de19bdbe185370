package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyai/polytrader/internal/config"
	"github.com/polyai/polytrader/internal/decision"
	"github.com/polyai/polytrader/internal/history"
	"github.com/polyai/polytrader/internal/journal"
	"github.com/polyai/polytrader/internal/logger"
	"github.com/polyai/polytrader/internal/polymarket"
)

func TestRunWithRetrySucceedsMidway(t *testing.T) {
	attempts := 0
	sleeps := 0

	err := runWithRetry(context.Background(), 3, time.Second, func(time.Duration) { sleeps++ }, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success on attempt 3, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want exactly 3 (no attempt 4)", attempts)
	}
	if sleeps != 2 {
		t.Errorf("sleeps = %d, want 2 (between failed attempts only)", sleeps)
	}
}

func TestRunWithRetryExhaustion(t *testing.T) {
	attempts := 0
	last := errors.New("final failure")

	err := runWithRetry(context.Background(), 3, time.Second, func(time.Duration) {}, func() error {
		attempts++
		if attempts == 3 {
			return last
		}
		return errors.New("earlier failure")
	})

	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if err == nil {
		t.Fatal("expected terminal error after exhaustion")
	}
	if !errors.Is(err, last) {
		t.Errorf("terminal error should wrap the last failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("terminal error should mention the attempt bound: %v", err)
	}
}

func TestRunWithRetryStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := runWithRetry(ctx, 3, time.Second, func(time.Duration) {}, func() error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("expected context error")
	}
	if called {
		t.Error("f must not run once the context is canceled")
	}
}

// fakeEngine drives a scripted pipeline without any LLM calls.
type fakeEngine struct {
	markets   []polymarket.Market
	candidate *decision.TradeCandidate
	size      decimal.Decimal
	failFirst int
	calls     int
	resets    int
}

func (f *fakeEngine) Reset() { f.resets++ }

func (f *fakeEngine) FilterEvents(_ context.Context, events []polymarket.Event) ([]polymarket.Event, error) {
	f.calls++
	if f.calls <= f.failFirst {
		return nil, errors.New("model unavailable")
	}
	return events, nil
}

func (f *fakeEngine) MapEventsToMarkets([]polymarket.Event) []polymarket.Market {
	return f.markets
}

func (f *fakeEngine) FilterMarkets(_ context.Context, markets []polymarket.Market) ([]polymarket.Market, error) {
	return markets, nil
}

func (f *fakeEngine) SourceBestTrade(context.Context, polymarket.Market) (*decision.TradeCandidate, error) {
	return f.candidate, nil
}

func (f *fakeEngine) SizeTrade(*decision.TradeCandidate, decimal.Decimal) decimal.Decimal {
	return f.size
}

type fakeEvents struct{ events []polymarket.Event }

func (f *fakeEvents) GetTradeableEvents(context.Context, int) ([]polymarket.Event, error) {
	return f.events, nil
}

type fakeBalance struct{ balance decimal.Decimal }

func (f *fakeBalance) GetUSDCBalance(context.Context) (decimal.Decimal, error) {
	return f.balance, nil
}

type fakeNotifier struct{ taken int }

func (f *fakeNotifier) TradeTaken(string, string, decimal.Decimal, time.Time) bool {
	f.taken++
	return true
}

type fakeRecorder struct{ rows []*history.CycleLog }

func (f *fakeRecorder) SaveCycleLog(log *history.CycleLog) error {
	f.rows = append(f.rows, log)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func newTestTrader(t *testing.T, engine *fakeEngine, rec *fakeRecorder, n *fakeNotifier, store *journal.Store) *Trader {
	t.Helper()
	cfg := testConfig(t)

	tr := NewTrader(
		&fakeEvents{events: []polymarket.Event{{ID: "e1", Title: "E"}}},
		&fakeBalance{balance: decimal.NewFromInt(1000)},
		engine, store, n, rec, cfg, logger.New("error"),
	)
	tr.sleep = func(time.Duration) {}
	return tr
}

func TestRunCycleRecordsPaperTrade(t *testing.T) {
	store := journal.NewStore(filepath.Join(t.TempDir(), "journal.json"))
	engine := &fakeEngine{
		markets: []polymarket.Market{{ID: "m1", Question: "Q"}},
		candidate: &decision.TradeCandidate{
			MarketQuestion: "Q",
			TokenID:        "123",
			Outcome:        "Yes",
			Confidence:     decimal.RequireFromString("0.8"),
		},
		size: decimal.NewFromInt(40),
	}
	rec := &fakeRecorder{}
	n := &fakeNotifier{}

	tr := newTestTrader(t, engine, rec, n, store)
	if err := tr.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	open := store.OpenTrades()
	if len(open) != 1 {
		t.Fatalf("open trades = %d, want 1 recorded paper trade", len(open))
	}
	if open[0].TokenID != "123" || !open[0].AmountUSDC.Equal(decimal.NewFromInt(40)) {
		t.Errorf("recorded trade = %+v", open[0])
	}
	if n.taken != 1 {
		t.Errorf("trade-taken notifications = %d, want 1", n.taken)
	}
	if engine.resets != 1 {
		t.Errorf("engine resets = %d, want 1 per cycle", engine.resets)
	}

	if len(rec.rows) != 1 {
		t.Fatalf("cycle logs = %d, want 1", len(rec.rows))
	}
	row := rec.rows[0]
	if row.Attempts != 1 || !row.Recorded || row.Error != "" || row.ComputedUSDC != 40 {
		t.Errorf("cycle log = %+v", row)
	}
}

func TestRunCycleRetriesThenSucceeds(t *testing.T) {
	store := journal.NewStore(filepath.Join(t.TempDir(), "journal.json"))
	engine := &fakeEngine{failFirst: 2} // attempts 1 and 2 fail, 3 succeeds
	rec := &fakeRecorder{}

	tr := newTestTrader(t, engine, rec, &fakeNotifier{}, store)
	if err := tr.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle should succeed on attempt 3, got %v", err)
	}
	if engine.calls != 3 {
		t.Errorf("pipeline attempts = %d, want 3", engine.calls)
	}
	if rec.rows[0].Attempts != 3 {
		t.Errorf("logged attempts = %d, want 3", rec.rows[0].Attempts)
	}
}

func TestRunCycleTerminalFailure(t *testing.T) {
	store := journal.NewStore(filepath.Join(t.TempDir(), "journal.json"))
	engine := &fakeEngine{failFirst: 99}
	rec := &fakeRecorder{}

	tr := newTestTrader(t, engine, rec, &fakeNotifier{}, store)
	err := tr.RunCycle(context.Background())
	if err == nil {
		t.Fatal("expected terminal error")
	}
	if engine.calls != 3 {
		t.Errorf("pipeline attempts = %d, want the configured bound of 3", engine.calls)
	}
	if rec.rows[0].Error == "" {
		t.Error("cycle log should carry the terminal error")
	}
	if len(store.OpenTrades()) != 0 {
		t.Error("no trade may be recorded on a failed cycle")
	}
}

func TestRunCycleNoMarketsIsCleanStop(t *testing.T) {
	store := journal.NewStore(filepath.Join(t.TempDir(), "journal.json"))
	engine := &fakeEngine{} // no markets pass filters
	rec := &fakeRecorder{}
	n := &fakeNotifier{}

	tr := newTestTrader(t, engine, rec, n, store)
	if err := tr.RunCycle(context.Background()); err != nil {
		t.Fatalf("empty filter result must not be an error, got %v", err)
	}
	if len(store.OpenTrades()) != 0 || n.taken != 0 {
		t.Error("nothing should be recorded or announced without a candidate")
	}
}
