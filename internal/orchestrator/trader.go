package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyai/polytrader/internal/config"
	"github.com/polyai/polytrader/internal/decision"
	"github.com/polyai/polytrader/internal/history"
	"github.com/polyai/polytrader/internal/journal"
	"github.com/polyai/polytrader/internal/logger"
	"github.com/polyai/polytrader/internal/polymarket"
)

const eventFetchLimit = 50

// EventSource provides the tradeable-event feed and the wallet balance.
type EventSource interface {
	GetTradeableEvents(ctx context.Context, limit int) ([]polymarket.Event, error)
}

// BalanceSource reads the funder's USDC balance. May be nil when no funder
// wallet is configured; sizing then falls back to the per-trade maximum.
type BalanceSource interface {
	GetUSDCBalance(ctx context.Context) (decimal.Decimal, error)
}

// Engine is the decision pipeline the trader drives each cycle.
type Engine interface {
	Reset()
	FilterEvents(ctx context.Context, events []polymarket.Event) ([]polymarket.Event, error)
	MapEventsToMarkets(events []polymarket.Event) []polymarket.Market
	FilterMarkets(ctx context.Context, markets []polymarket.Market) ([]polymarket.Market, error)
	SourceBestTrade(ctx context.Context, m polymarket.Market) (*decision.TradeCandidate, error)
	SizeTrade(candidate *decision.TradeCandidate, balance decimal.Decimal) decimal.Decimal
}

// Journal is the slice of the trade store the trader appends to.
type Journal interface {
	Add(t journal.Trade) (journal.Trade, error)
}

// Notifier announces recorded trades. May be nil.
type Notifier interface {
	TradeTaken(question, tokenID string, amount decimal.Decimal, ts time.Time) bool
}

// Recorder persists per-cycle audit rows. May be nil.
type Recorder interface {
	SaveCycleLog(log *history.CycleLog) error
}

// Trader runs one trading cycle end to end: decision pipeline, sizing and
// (when enabled) a paper record in the journal. It never places a venue
// order.
type Trader struct {
	events   EventSource
	balance  BalanceSource
	engine   Engine
	journal  Journal
	notifier Notifier
	recorder Recorder
	cfg      *config.Config
	logger   *logger.Logger
	sleep    func(time.Duration)
	now      func() time.Time
}

func NewTrader(
	events EventSource,
	balance BalanceSource,
	engine Engine,
	j Journal,
	notifier Notifier,
	recorder Recorder,
	cfg *config.Config,
	log *logger.Logger,
) *Trader {
	return &Trader{
		events:   events,
		balance:  balance,
		engine:   engine,
		journal:  j,
		notifier: notifier,
		recorder: recorder,
		cfg:      cfg,
		logger:   log,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

type cycleStats struct {
	eventsFound     int
	marketsFiltered int
	question        string
	tokenID         string
	computed        decimal.Decimal
	recorded        bool
}

// RunCycle executes one trading cycle under the bounded retry policy and
// writes a cycle-log row regardless of the outcome. The returned error is
// terminal: all attempts were exhausted.
func (t *Trader) RunCycle(ctx context.Context) error {
	var stats cycleStats
	attempts := 0

	err := runWithRetry(ctx, t.cfg.Trading.MaxRetries, t.cfg.RetrySleep(), t.sleep, func() error {
		attempts++
		s, err := t.cycleOnce(ctx)
		if err != nil {
			t.logger.Error("trading cycle attempt failed",
				"attempt", attempts, "max", t.cfg.Trading.MaxRetries, "error", err)
			return err
		}
		stats = s
		return nil
	})

	t.recordCycle(attempts, stats, err)
	return err
}

func (t *Trader) cycleOnce(ctx context.Context) (cycleStats, error) {
	var stats cycleStats

	t.engine.Reset()

	events, err := t.events.GetTradeableEvents(ctx, eventFetchLimit)
	if err != nil {
		return stats, fmt.Errorf("fetch events: %w", err)
	}
	stats.eventsFound = len(events)
	t.logger.Info("tradeable events fetched", "count", len(events))

	filteredEvents, err := t.engine.FilterEvents(ctx, events)
	if err != nil {
		return stats, err
	}
	t.logger.Info("events filtered", "count", len(filteredEvents))

	markets := t.engine.MapEventsToMarkets(filteredEvents)
	t.logger.Info("markets mapped", "count", len(markets))

	filteredMarkets, err := t.engine.FilterMarkets(ctx, markets)
	if err != nil {
		return stats, err
	}
	stats.marketsFiltered = len(filteredMarkets)
	t.logger.Info("markets filtered", "count", len(filteredMarkets))

	if len(filteredMarkets) == 0 {
		t.logger.Info("no markets passed filters, skipping trade")
		return stats, nil
	}

	market := filteredMarkets[0]
	candidate, err := t.engine.SourceBestTrade(ctx, market)
	if err != nil {
		return stats, err
	}
	stats.question = candidate.MarketQuestion
	stats.tokenID = candidate.TokenID
	t.logger.Info("trade candidate sourced",
		"market", candidate.MarketQuestion, "outcome", candidate.Outcome,
		"price", candidate.Price.String(), "confidence", candidate.Confidence.String())

	balance := t.cfg.MaxPositionUSDC()
	if t.balance != nil {
		b, err := t.balance.GetUSDCBalance(ctx)
		if err != nil {
			return stats, fmt.Errorf("get balance: %w", err)
		}
		balance = b
	}

	amount := t.engine.SizeTrade(candidate, balance)
	stats.computed = amount
	t.logger.Info("trade sized", "amount_usdc", amount.String())

	if amount.Sign() <= 0 {
		t.logger.Info("computed size is zero, nothing to record")
		return stats, nil
	}

	// Order placement stays unwired. With record_trades enabled the sized
	// trade is tracked in the journal as a paper position.
	if t.cfg.RecordTrades() && t.journal != nil {
		trade, err := t.journal.Add(journal.Trade{
			MarketQuestion: candidate.MarketQuestion,
			TokenID:        candidate.TokenID,
			AmountUSDC:     amount,
		})
		if err != nil {
			return stats, fmt.Errorf("record trade: %w", err)
		}
		stats.recorded = true
		t.logger.Info("trade recorded", "trade_id", trade.ID)
		if t.notifier != nil {
			t.notifier.TradeTaken(trade.MarketQuestion, trade.TokenID, trade.AmountUSDC, t.now().UTC())
		}
	}

	return stats, nil
}

func (t *Trader) recordCycle(attempts int, stats cycleStats, err error) {
	if t.recorder == nil {
		return
	}
	computed, _ := stats.computed.Float64()
	row := &history.CycleLog{
		Attempts:        attempts,
		EventsFound:     stats.eventsFound,
		MarketsFiltered: stats.marketsFiltered,
		MarketQuestion:  stats.question,
		TokenID:         stats.tokenID,
		ComputedUSDC:    computed,
		Recorded:        stats.recorded,
	}
	if err != nil {
		row.Error = err.Error()
	}
	if dbErr := t.recorder.SaveCycleLog(row); dbErr != nil {
		t.logger.Error("save cycle log", "error", dbErr)
	}
}
