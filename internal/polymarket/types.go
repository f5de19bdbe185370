package polymarket

// Market is a market snapshot as returned by the Gamma API. The token-id and
// price lists arrive JSON-encoded inside strings, e.g. "[\"123\",\"456\"]";
// they are decoded on demand by InferResult.
type Market struct {
	ID            string  `json:"id"`
	Question      string  `json:"question"`
	Active        bool    `json:"active"`
	Closed        bool    `json:"closed"`
	Outcomes      string  `json:"outcomes"`
	OutcomePrices string  `json:"outcomePrices"`
	ClobTokenIDs  string  `json:"clobTokenIds"`
	Volume        string  `json:"volume"`
	EndDate       string  `json:"endDate"`
	Description   string  `json:"description"`
	Spread        float64 `json:"spread"`
}

// Event groups related markets under one headline.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Active      bool     `json:"active"`
	Closed      bool     `json:"closed"`
	Markets     []Market `json:"markets"`
}
