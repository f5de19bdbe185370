package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOpen    Status = "OPEN"
	StatusSettled Status = "SETTLED"
)

type Result string

const (
	ResultWin  Result = "WIN"
	ResultLose Result = "LOSE"
)

// Trade is one tracked speculative position. Result and SettledAt are set
// only once the trade is settled.
type Trade struct {
	ID             string
	MarketQuestion string
	TokenID        string
	AmountUSDC     decimal.Decimal
	Status         Status
	Result         Result
	CreatedAt      time.Time
	SettledAt      *time.Time
}

// ShortID returns the fixed-length id prefix used for display only.
func (t Trade) ShortID() string {
	if len(t.ID) <= 8 {
		return t.ID
	}
	return t.ID[:8]
}
