package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"github.com/polyai/polytrader/internal/config"
	"github.com/polyai/polytrader/internal/logger"
	"github.com/polyai/polytrader/internal/polymarket"
	"github.com/polyai/polytrader/internal/search"
)

// Engine runs the LLM decision pipeline: filter events, filter markets,
// pick the best trade, size it. It keeps a small on-disk cache of the raw
// inputs of the last cycle for inspection; Reset clears it.
type Engine struct {
	client   *openai.Client
	model    string
	search   *search.Client
	cacheDir string
	cfg      *config.Config
	logger   *logger.Logger
}

func NewEngine(cfg *config.Config, searchClient *search.Client, log *logger.Logger) *Engine {
	return &Engine{
		client:   openai.NewClient(cfg.OpenAI.APIKey),
		model:    cfg.OpenAI.Model,
		search:   searchClient,
		cacheDir: cfg.Trading.CacheDir,
		cfg:      cfg,
		logger:   log,
	}
}

// Reset drops transient per-cycle caches. Called before each trading cycle.
func (e *Engine) Reset() {
	if e.cacheDir == "" {
		return
	}
	if err := os.RemoveAll(e.cacheDir); err != nil {
		e.logger.Warn("could not clear decision cache", "dir", e.cacheDir, "error", err)
	}
}

func (e *Engine) complete(ctx context.Context, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.OpenAITimeout())
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// FilterEvents asks the model which events are worth a closer look.
func (e *Engine) FilterEvents(ctx context.Context, events []polymarket.Event) ([]polymarket.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}
	e.cache("events.json", events)

	raw, err := e.complete(ctx, buildEventFilterPrompt(events))
	if err != nil {
		return nil, fmt.Errorf("filter events: %w", err)
	}

	var pick eventPick
	if err := parseJSON(raw, &pick); err != nil {
		return nil, fmt.Errorf("filter events: %w", err)
	}

	keep := make(map[string]bool, len(pick.EventIDs))
	for _, id := range pick.EventIDs {
		keep[id] = true
	}

	var filtered []polymarket.Event
	for _, ev := range events {
		if keep[ev.ID] {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}

// MapEventsToMarkets flattens events into their still-open markets.
func (e *Engine) MapEventsToMarkets(events []polymarket.Event) []polymarket.Market {
	var markets []polymarket.Market
	for _, ev := range events {
		for _, m := range ev.Markets {
			if m.Closed {
				continue
			}
			markets = append(markets, m)
		}
	}
	return markets
}

// FilterMarkets asks the model to rank the candidate markets, best first.
func (e *Engine) FilterMarkets(ctx context.Context, markets []polymarket.Market) ([]polymarket.Market, error) {
	if len(markets) == 0 {
		return nil, nil
	}
	e.cache("markets.json", markets)

	raw, err := e.complete(ctx, buildMarketFilterPrompt(markets))
	if err != nil {
		return nil, fmt.Errorf("filter markets: %w", err)
	}

	var pick marketPick
	if err := parseJSON(raw, &pick); err != nil {
		return nil, fmt.Errorf("filter markets: %w", err)
	}

	byID := make(map[string]polymarket.Market, len(markets))
	for _, m := range markets {
		byID[m.ID] = m
	}

	var filtered []polymarket.Market
	for _, id := range pick.MarketIDs {
		if m, ok := byID[id]; ok {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// SourceBestTrade picks the outcome to back on one market and resolves it
// to a concrete outcome token.
func (e *Engine) SourceBestTrade(ctx context.Context, m polymarket.Market) (*TradeCandidate, error) {
	searchContext := ""
	if e.search != nil && e.search.Enabled() {
		sc, err := e.search.Context(ctx, m.Question)
		if err != nil {
			// Search is an optional enrichment; proceed without it.
			e.logger.Warn("search context unavailable", "error", err)
		} else {
			searchContext = sc
		}
	}

	raw, err := e.complete(ctx, buildBestTradePrompt(m, searchContext))
	if err != nil {
		return nil, fmt.Errorf("source best trade: %w", err)
	}

	var pick tradePick
	if err := parseJSON(raw, &pick); err != nil {
		return nil, fmt.Errorf("source best trade: %w", err)
	}

	tokenID, err := resolveToken(m, pick.Outcome)
	if err != nil {
		return nil, fmt.Errorf("source best trade: %w", err)
	}

	return &TradeCandidate{
		MarketQuestion: m.Question,
		TokenID:        tokenID,
		Outcome:        pick.Outcome,
		Price:          decimal.NewFromFloat(pick.Price),
		Confidence:     decimal.NewFromFloat(pick.Confidence),
		Reasoning:      pick.Reasoning,
	}, nil
}

// resolveToken maps an outcome label to its clob token id via the market's
// parallel outcome/token arrays.
func resolveToken(m polymarket.Market, outcome string) (string, error) {
	outcomes, ok := polymarket.DecodeStringList(m.Outcomes)
	if !ok {
		return "", fmt.Errorf("market %s has undecodable outcomes", m.ID)
	}
	tokens, ok := polymarket.DecodeStringList(m.ClobTokenIDs)
	if !ok || len(tokens) != len(outcomes) {
		return "", fmt.Errorf("market %s has mismatched outcome tokens", m.ID)
	}
	for i, o := range outcomes {
		if strings.EqualFold(o, outcome) {
			return tokens[i], nil
		}
	}
	return "", fmt.Errorf("outcome %q not found on market %s", outcome, m.ID)
}

// SizeTrade converts a candidate and the available balance into a position
// size: confidence-weighted risk fraction of the balance, capped by the
// per-trade maximum. Deterministic so it can be tested directly.
func (e *Engine) SizeTrade(candidate *TradeCandidate, balance decimal.Decimal) decimal.Decimal {
	if balance.Sign() <= 0 {
		return decimal.Zero
	}

	size := balance.Mul(e.cfg.RiskFraction()).Mul(candidate.Confidence)
	if max := e.cfg.MaxPositionUSDC(); size.GreaterThan(max) {
		size = max
	}
	if size.GreaterThan(balance) {
		size = balance
	}
	return size.Round(2)
}

func (e *Engine) cache(name string, v any) {
	if e.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(e.cacheDir, 0o755); err != nil {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(e.cacheDir, name), data, 0o644)
}
