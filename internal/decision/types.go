package decision

import "github.com/shopspring/decimal"

// eventPick is the LLM's answer to the event-filter prompt.
type eventPick struct {
	EventIDs []string `json:"event_ids"`
}

// marketPick is the LLM's answer to the market-filter prompt.
type marketPick struct {
	MarketIDs []string `json:"market_ids"`
}

// tradePick is the LLM's answer to the best-trade prompt.
type tradePick struct {
	Outcome    string  `json:"outcome"`
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"` // 0..1
	Reasoning  string  `json:"reasoning"`
}

// TradeCandidate is a fully resolved trade proposal: one outcome token of
// one market, with the model's conviction attached.
type TradeCandidate struct {
	MarketQuestion string
	TokenID        string
	Outcome        string
	Price          decimal.Decimal
	Confidence     decimal.Decimal
	Reasoning      string
}
