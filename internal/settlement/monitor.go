package settlement

import (
	"context"

	"github.com/polyai/polytrader/internal/journal"
	"github.com/polyai/polytrader/internal/logger"
	"github.com/polyai/polytrader/internal/polymarket"
)

// MarketGetter fetches a market snapshot by outcome token id.
type MarketGetter interface {
	GetMarket(ctx context.Context, tokenID string) (polymarket.Market, error)
}

// Journal is the slice of the trade store the monitor mutates.
type Journal interface {
	OpenTrades() []journal.Trade
	Settle(id string, result journal.Result) (bool, error)
}

// Notifier is best-effort; delivery failures do not block settlement.
type Notifier interface {
	TradeResult(question string, result journal.Result) bool
}

// Recorder receives an audit row per settled trade. May be nil.
type Recorder interface {
	RecordSettlement(tradeID, question string, result journal.Result) error
}

// Monitor resolves open trades against live market state. It is a single
// pass: invoke RunOnce periodically from a scheduler or the monitor binary.
type Monitor struct {
	journal  Journal
	gateway  MarketGetter
	notifier Notifier
	recorder Recorder
	logger   *logger.Logger
}

func NewMonitor(j Journal, gw MarketGetter, n Notifier, rec Recorder, log *logger.Logger) *Monitor {
	return &Monitor{journal: j, gateway: gw, notifier: n, recorder: rec, logger: log}
}

// RunOnce scans open trades and settles those whose market has resolved.
// Each trade is processed in isolation: a failing snapshot or an
// undecidable outcome skips that trade only and leaves it open.
func (m *Monitor) RunOnce(ctx context.Context) int {
	open := m.journal.OpenTrades()
	settled := 0

	for _, t := range open {
		if t.TokenID == "" {
			continue
		}

		market, err := m.gateway.GetMarket(ctx, t.TokenID)
		if err != nil {
			m.logger.Debug("market snapshot unavailable", "trade_id", t.ID, "error", err)
			continue
		}

		result, ok := polymarket.InferResult(market, t.TokenID)
		if !ok {
			continue
		}

		changed, err := m.journal.Settle(t.ID, result)
		if err != nil {
			m.logger.Error("settle trade", "trade_id", t.ID, "error", err)
			continue
		}
		if !changed {
			continue
		}

		settled++
		m.logger.Info("trade settled", "trade_id", t.ID, "result", string(result))
		m.notifier.TradeResult(t.MarketQuestion, result)

		if m.recorder != nil {
			if err := m.recorder.RecordSettlement(t.ID, t.MarketQuestion, result); err != nil {
				m.logger.Error("record settlement", "trade_id", t.ID, "error", err)
			}
		}
	}

	return settled
}
