package history

import "time"

// CycleLog records the outcome of one trading cycle, including retries.
type CycleLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Attempts        int     `json:"attempts"`
	EventsFound     int     `json:"events_found"`
	MarketsFiltered int     `json:"markets_filtered"`
	MarketQuestion  string  `json:"market_question"`
	TokenID         string  `json:"token_id"`
	ComputedUSDC    float64 `json:"computed_usdc"`
	Recorded        bool    `json:"recorded"`
	Error           string  `json:"error"`
}

// SettlementLog records every trade the monitor settled.
type SettlementLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	TradeID        string `gorm:"index" json:"trade_id"`
	MarketQuestion string `json:"market_question"`
	Result         string `json:"result"`
}
