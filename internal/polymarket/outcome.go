package polymarket

import (
	"encoding/json"
	"strconv"

	"github.com/polyai/polytrader/internal/journal"
)

// winThreshold is inclusive on the WIN side: an outcome priced exactly at
// 0.5 settles as a win.
const winThreshold = 0.5

// DecodeStringList decodes the Gamma API's JSON-encoded-inside-a-string
// list fields ("[\"a\",\"b\"]"). Any shape mismatch fails closed.
func DecodeStringList(raw string) ([]string, bool) {
	if raw == "" {
		return nil, false
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false
	}
	return out, true
}

// InferResult derives a WIN/LOSE outcome for tokenID from a market snapshot.
// The second return is false when no decision can be made yet: the market is
// still active, the token is absent, the parallel token/price arrays
// disagree in length, or decoding fails. Undecidable is never an error —
// the trade simply stays open until a later pass.
func InferResult(m Market, tokenID string) (journal.Result, bool) {
	if m.Active {
		return "", false
	}

	tokenIDs, ok := DecodeStringList(m.ClobTokenIDs)
	if !ok {
		return "", false
	}
	prices, ok := DecodeStringList(m.OutcomePrices)
	if !ok || len(prices) != len(tokenIDs) {
		return "", false
	}

	for i, id := range tokenIDs {
		if id != tokenID {
			continue
		}
		price, err := strconv.ParseFloat(prices[i], 64)
		if err != nil {
			return "", false
		}
		if price >= winThreshold {
			return journal.ResultWin, true
		}
		return journal.ResultLose, true
	}
	return "", false
}
