package polymarket

import (
	"testing"

	"github.com/polyai/polytrader/internal/journal"
)

func resolvedMarket(tokens, prices string) Market {
	return Market{
		Question:      "Will X happen?",
		Active:        false,
		Closed:        true,
		ClobTokenIDs:  tokens,
		OutcomePrices: prices,
	}
}

func TestInferResult(t *testing.T) {
	tests := []struct {
		name       string
		market     Market
		tokenID    string
		wantResult journal.Result
		wantOK     bool
	}{
		{
			name:       "price at threshold is a win",
			market:     resolvedMarket(`["123","456"]`, `["0.5","0.5"]`),
			tokenID:    "123",
			wantResult: journal.ResultWin,
			wantOK:     true,
		},
		{
			name:       "price just below threshold loses",
			market:     resolvedMarket(`["123","456"]`, `["0.4999","0.5001"]`),
			tokenID:    "123",
			wantResult: journal.ResultLose,
			wantOK:     true,
		},
		{
			name:       "winning side resolves by index",
			market:     resolvedMarket(`["123","456"]`, `["0","1"]`),
			tokenID:    "456",
			wantResult: journal.ResultWin,
			wantOK:     true,
		},
		{
			name: "active market is undecidable",
			market: Market{
				Active:        true,
				ClobTokenIDs:  `["123"]`,
				OutcomePrices: `["1"]`,
			},
			tokenID: "123",
			wantOK:  false,
		},
		{
			name:    "token missing from market",
			market:  resolvedMarket(`["123","456"]`, `["1","0"]`),
			tokenID: "789",
			wantOK:  false,
		},
		{
			name:    "array length mismatch fails closed",
			market:  resolvedMarket(`["123","456"]`, `["1"]`),
			tokenID: "123",
			wantOK:  false,
		},
		{
			name:    "undecodable token list fails closed",
			market:  resolvedMarket(`not json`, `["1","0"]`),
			tokenID: "123",
			wantOK:  false,
		},
		{
			name:    "undecodable price fails closed",
			market:  resolvedMarket(`["123"]`, `["abc"]`),
			tokenID: "123",
			wantOK:  false,
		},
		{
			name:    "empty fields fail closed",
			market:  resolvedMarket("", ""),
			tokenID: "123",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := InferResult(tt.market, tt.tokenID)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && result != tt.wantResult {
				t.Errorf("result = %s, want %s", result, tt.wantResult)
			}
		})
	}
}

func TestDecodeStringList(t *testing.T) {
	if got, ok := DecodeStringList(`["a","b"]`); !ok || len(got) != 2 {
		t.Errorf("DecodeStringList valid input: got %v ok=%v", got, ok)
	}
	if _, ok := DecodeStringList(`[1,2]`); ok {
		t.Error("numeric array should fail closed")
	}
	if _, ok := DecodeStringList(""); ok {
		t.Error("empty string should fail closed")
	}
}
