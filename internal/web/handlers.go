package web

import (
	"encoding/json"
	"net/http"

	"github.com/polyai/polytrader/internal/history"
)

type tradeView struct {
	ID             string  `json:"id"`
	MarketQuestion string  `json:"market_question"`
	AmountUSDC     float64 `json:"amount_usdc"`
	Status         string  `json:"status"`
	Result         string  `json:"result,omitempty"`
}

type statusResponse struct {
	OpenPositions int                     `json:"open_positions"`
	ExposureUSDC  float64                 `json:"exposure_usdc"`
	PnLUSDC       float64                 `json:"pnl_usdc"`
	Wins          int                     `json:"wins"`
	Losses        int                     `json:"losses"`
	RecentTrades  []tradeView             `json:"recent_trades"`
	RecentCycles  []history.CycleLog      `json:"recent_cycles"`
	Settlements   []history.SettlementLog `json:"recent_settlements"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	open := s.journal.OpenTrades()
	pnl, wins, losses := s.journal.PnLSummary()

	resp := statusResponse{
		OpenPositions: len(open),
		Wins:          wins,
		Losses:        losses,
	}
	resp.PnLUSDC, _ = pnl.Float64()

	exposure := 0.0
	for _, t := range open {
		amt, _ := t.AmountUSDC.Float64()
		exposure += amt
	}
	resp.ExposureUSDC = exposure

	for _, t := range s.journal.Recent(20) {
		amt, _ := t.AmountUSDC.Float64()
		resp.RecentTrades = append(resp.RecentTrades, tradeView{
			ID:             t.ID,
			MarketQuestion: t.MarketQuestion,
			AmountUSDC:     amt,
			Status:         string(t.Status),
			Result:         string(t.Result),
		})
	}

	if s.repo != nil {
		if cycles, err := s.repo.RecentCycles(10); err == nil {
			resp.RecentCycles = cycles
		} else {
			s.logger.Error("recent cycles query", "error", err)
		}
		if rows, err := s.repo.RecentSettlements(10); err == nil {
			resp.Settlements = rows
		} else {
			s.logger.Error("recent settlements query", "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encode status response", "error", err)
	}
}
