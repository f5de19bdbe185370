package web

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/polyai/polytrader/internal/history"
	"github.com/polyai/polytrader/internal/journal"
	"github.com/polyai/polytrader/internal/logger"
)

func newTestServer(t *testing.T) (*Server, *journal.Store, *history.Repository) {
	t.Helper()
	dir := t.TempDir()

	store := journal.NewStore(filepath.Join(dir, "journal.json"))
	db, err := history.NewDatabase(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	repo := history.NewRepository(db)

	return NewServer(0, store, repo, logger.New("error")), store, repo
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != 200 || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q, want 200 ok", rec.Code, rec.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	s, store, repo := newTestServer(t)

	if _, err := store.Add(journal.Trade{ID: "t1", MarketQuestion: "Q1", AmountUSDC: decimal.NewFromInt(50)}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Add(journal.Trade{ID: "t2", MarketQuestion: "Q2", AmountUSDC: decimal.NewFromInt(25)}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Settle("t1", journal.ResultWin); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveCycleLog(&history.CycleLog{Attempts: 1, Recorded: true}); err != nil {
		t.Fatal(err)
	}
	if err := repo.RecordSettlement("t1", "Q1", journal.ResultWin); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest("GET", "/api/status", nil))

	if rec.Code != 200 {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.OpenPositions != 1 {
		t.Errorf("open positions = %d, want 1", resp.OpenPositions)
	}
	if resp.ExposureUSDC != 25 {
		t.Errorf("exposure = %v, want 25", resp.ExposureUSDC)
	}
	if resp.PnLUSDC != 50 || resp.Wins != 1 || resp.Losses != 0 {
		t.Errorf("pnl = %v (%dW/%dL), want 50 (1W/0L)", resp.PnLUSDC, resp.Wins, resp.Losses)
	}
	if len(resp.RecentTrades) != 2 {
		t.Errorf("recent trades = %d, want 2", len(resp.RecentTrades))
	}
	if len(resp.RecentCycles) != 1 {
		t.Errorf("recent cycles = %d, want 1", len(resp.RecentCycles))
	}
	if len(resp.Settlements) != 1 || resp.Settlements[0].Result != "WIN" {
		t.Errorf("recent settlements = %+v, want one WIN row", resp.Settlements)
	}
}
