package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/polyai/polytrader/internal/journal"
)

const positionsLimit = 10
const recentLimit = 5

func (b *Bot) helpText() string {
	return strings.Join([]string{
		"Polytrader bot commands:",
		"/status - balance, open trades and PnL at a glance",
		"/balance - wallet USDC + tracked exposure",
		"/positions - open tracked trades",
		"/recent - last recorded trades",
		"/pnl - settled profit and loss",
		"/help - this message",
	}, "\n")
}

// balanceLine renders the wallet balance or n/a when the gateway is
// unavailable; internal errors are never surfaced to the conversation.
func (b *Bot) balanceLine(ctx context.Context) string {
	if b.balance == nil {
		return "USDC balance: n/a"
	}
	bal, err := b.balance.GetUSDCBalance(ctx)
	if err != nil {
		b.logger.Warn("balance query failed", "error", err)
		return "USDC balance: n/a"
	}
	return fmt.Sprintf("USDC balance: $%s", bal.StringFixed(2))
}

func exposure(trades []journal.Trade) decimal.Decimal {
	total := decimal.Zero
	for _, t := range trades {
		total = total.Add(t.AmountUSDC)
	}
	return total
}

func (b *Bot) statusText(ctx context.Context) string {
	open := b.journal.OpenTrades()
	pnl, wins, losses := b.journal.PnLSummary()

	return strings.Join([]string{
		b.balanceLine(ctx),
		fmt.Sprintf("Open positions: %d", len(open)),
		fmt.Sprintf("Tracked exposure: $%s", exposure(open).StringFixed(2)),
		fmt.Sprintf("Settled PnL: %s (%dW / %dL)", signedUSD(pnl), wins, losses),
	}, "\n")
}

func (b *Bot) balanceText(ctx context.Context) string {
	open := b.journal.OpenTrades()

	return strings.Join([]string{
		b.balanceLine(ctx),
		fmt.Sprintf("Open positions: %d", len(open)),
		fmt.Sprintf("Tracked exposure: $%s", exposure(open).StringFixed(2)),
	}, "\n")
}

func (b *Bot) positionsText() string {
	open := b.journal.OpenTrades()
	if len(open) == 0 {
		return "No open positions in the trade journal."
	}

	lines := []string{fmt.Sprintf("Open positions: %d", len(open))}
	shown := open
	if len(shown) > positionsLimit {
		shown = shown[:positionsLimit]
	}
	for _, t := range shown {
		lines = append(lines, fmt.Sprintf("- %s $%s | %s",
			t.ShortID(), t.AmountUSDC.StringFixed(2), t.MarketQuestion))
	}
	lines = append(lines, fmt.Sprintf("Total tracked exposure: $%s", exposure(open).StringFixed(2)))
	return strings.Join(lines, "\n")
}

func (b *Bot) recentText() string {
	trades := b.journal.Recent(recentLimit)
	if len(trades) == 0 {
		return "No trades recorded yet."
	}

	lines := []string{"Recent trades:"}
	for _, t := range trades {
		state := string(t.Status)
		if t.Status == journal.StatusSettled && t.Result != "" {
			state = string(t.Result)
		}
		lines = append(lines, fmt.Sprintf("- %s [%s] $%s | %s",
			t.ShortID(), state, t.AmountUSDC.StringFixed(2), t.MarketQuestion))
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) pnlText() string {
	pnl, wins, losses := b.journal.PnLSummary()

	winRate := 0.0
	if settled := wins + losses; settled > 0 {
		winRate = float64(wins) / float64(settled) * 100
	}

	return strings.Join([]string{
		fmt.Sprintf("Settled PnL: %s", signedUSD(pnl)),
		fmt.Sprintf("Wins: %d / Losses: %d", wins, losses),
		fmt.Sprintf("Win rate: %.1f%%", winRate),
	}, "\n")
}

func signedUSD(d decimal.Decimal) string {
	if d.Sign() < 0 {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "+$" + d.StringFixed(2)
}
