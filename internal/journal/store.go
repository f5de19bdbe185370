package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store persists the trade journal as a single JSON file. Every mutation
// loads the full file, applies the change and writes the full file back.
// There is no cross-process locking: deployments must keep a single writer
// (the trader/monitor processes mutate, the command bot only reads).
type Store struct {
	path string
	now  func() time.Time
}

func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// fileState is the on-disk schema. Amounts cross the boundary as
// json.Number so amount_usdc stays a plain JSON number on disk.
type fileState struct {
	Trades []fileTrade `json:"trades"`
}

type fileTrade struct {
	ID             string      `json:"id"`
	MarketQuestion string      `json:"market_question"`
	TokenID        string      `json:"token_id"`
	AmountUSDC     json.Number `json:"amount_usdc"`
	Status         string      `json:"status"`
	Result         string      `json:"result,omitempty"`
	CreatedAt      string      `json:"created_at,omitempty"`
	SettledAt      string      `json:"settled_at,omitempty"`
}

func toFileTrade(t Trade) fileTrade {
	ft := fileTrade{
		ID:             t.ID,
		MarketQuestion: t.MarketQuestion,
		TokenID:        t.TokenID,
		AmountUSDC:     json.Number(t.AmountUSDC.String()),
		Status:         string(t.Status),
		Result:         string(t.Result),
	}
	if !t.CreatedAt.IsZero() {
		ft.CreatedAt = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	if t.SettledAt != nil {
		ft.SettledAt = t.SettledAt.UTC().Format(time.RFC3339)
	}
	return ft
}

func fromFileTrade(ft fileTrade) Trade {
	t := Trade{
		ID:             ft.ID,
		MarketQuestion: ft.MarketQuestion,
		TokenID:        ft.TokenID,
		Status:         Status(ft.Status),
		Result:         Result(ft.Result),
	}
	if amt, err := decimal.NewFromString(ft.AmountUSDC.String()); err == nil {
		t.AmountUSDC = amt
	}
	if ts, err := time.Parse(time.RFC3339, ft.CreatedAt); err == nil {
		t.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339, ft.SettledAt); err == nil {
		t.SettledAt = &ts
	}
	return t
}

// Load returns all persisted trades. A missing or unreadable file yields an
// empty journal: availability is favored over corruption detection here.
func (s *Store) Load() []Trade {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil
	}
	trades := make([]Trade, 0, len(state.Trades))
	for _, ft := range state.Trades {
		trades = append(trades, fromFileTrade(ft))
	}
	return trades
}

// Save writes the full journal back, creating parent directories as needed.
// The write goes through a temp file and rename so a crash mid-write leaves
// either the old or the new journal, never a torn one.
func (s *Store) Save(trades []Trade) error {
	state := fileState{Trades: make([]fileTrade, 0, len(trades))}
	for _, t := range trades {
		state.Trades = append(state.Trades, toFileTrade(t))
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".journal-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp journal: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp journal: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp journal: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace journal: %w", err)
	}
	return nil
}

// Add appends a trade and persists. Missing id, created_at and status are
// defaulted. Id uniqueness is the caller's obligation: the journal is an
// append-only log and does not deduplicate.
func (s *Store) Add(t Trade) (Trade, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	if t.Status == "" {
		t.Status = StatusOpen
	}

	trades := s.Load()
	trades = append(trades, t)
	if err := s.Save(trades); err != nil {
		return Trade{}, err
	}
	return t, nil
}

// All returns every trade in store order.
func (s *Store) All() []Trade {
	return s.Load()
}

// OpenTrades returns trades still awaiting settlement, in store order.
func (s *Store) OpenTrades() []Trade {
	var open []Trade
	for _, t := range s.Load() {
		if t.Status == StatusOpen {
			open = append(open, t)
		}
	}
	return open
}

// Settled returns settled trades in store order.
func (s *Store) Settled() []Trade {
	var settled []Trade
	for _, t := range s.Load() {
		if t.Status == StatusSettled {
			settled = append(settled, t)
		}
	}
	return settled
}

// Recent returns up to limit trades sorted by created_at descending. Equal
// or missing timestamps keep their store order.
func (s *Store) Recent(limit int) []Trade {
	trades := s.Load()
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].CreatedAt.After(trades[j].CreatedAt)
	})
	if limit >= 0 && len(trades) > limit {
		trades = trades[:limit]
	}
	return trades
}

// Settle marks every OPEN trade with the given id as SETTLED and records the
// result. It reports whether anything changed; settling an unknown or
// already-settled id is a no-op. The journal is persisted only on change.
func (s *Store) Settle(id string, result Result) (bool, error) {
	normalized := Result(strings.ToUpper(string(result)))

	trades := s.Load()
	changed := false
	for i := range trades {
		if trades[i].ID == id && trades[i].Status == StatusOpen {
			ts := s.now().UTC()
			trades[i].Status = StatusSettled
			trades[i].Result = normalized
			trades[i].SettledAt = &ts
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	if err := s.Save(trades); err != nil {
		return false, err
	}
	return true, nil
}

// PnLSummary aggregates settled trades: WIN adds the position size, LOSE
// subtracts it. A settled trade with an unknown result counts toward
// neither the sum nor the win/loss counters.
func (s *Store) PnLSummary() (pnl decimal.Decimal, wins, losses int) {
	for _, t := range s.Load() {
		if t.Status != StatusSettled {
			continue
		}
		switch t.Result {
		case ResultWin:
			pnl = pnl.Add(t.AmountUSDC)
			wins++
		case ResultLose:
			pnl = pnl.Sub(t.AmountUSDC)
			losses++
		}
	}
	return pnl, wins, losses
}
