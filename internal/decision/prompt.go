package decision

import (
	"fmt"
	"strings"

	"github.com/polyai/polytrader/internal/polymarket"
)

const systemPrompt = `You are a superforecaster evaluating prediction markets on Polymarket.
You weigh base rates, recent developments and market pricing, and you answer
strictly in JSON with no commentary outside the JSON object.`

func buildEventFilterPrompt(events []polymarket.Event) string {
	var sb strings.Builder

	sb.WriteString("Below are currently tradeable events. Pick the ones where a\n")
	sb.WriteString("well-informed forecaster plausibly has an edge over the market.\n\n")

	for _, e := range events {
		sb.WriteString(fmt.Sprintf("- id=%s | %s\n", e.ID, e.Title))
	}

	sb.WriteString("\nAnswer in JSON: {\"event_ids\": [\"...\"]}\n")
	sb.WriteString("Return at most 5 ids. If nothing stands out, return an empty list.")

	return sb.String()
}

func buildMarketFilterPrompt(markets []polymarket.Market) string {
	var sb strings.Builder

	sb.WriteString("Below are candidate markets. Keep only liquid, clearly worded\n")
	sb.WriteString("binary markets worth a position, best first.\n\n")

	for _, m := range markets {
		sb.WriteString(fmt.Sprintf("- id=%s | %s | outcomes=%s | prices=%s | volume=%s\n",
			m.ID, m.Question, m.Outcomes, m.OutcomePrices, m.Volume))
	}

	sb.WriteString("\nAnswer in JSON: {\"market_ids\": [\"...\"]}\n")
	sb.WriteString("If none qualify, return an empty list.")

	return sb.String()
}

func buildBestTradePrompt(m polymarket.Market, searchContext string) string {
	var sb strings.Builder

	sb.WriteString("Evaluate this prediction market and choose the outcome to back.\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s\n", m.Question))
	if m.Description != "" {
		sb.WriteString(fmt.Sprintf("Description: %s\n", m.Description))
	}
	sb.WriteString(fmt.Sprintf("Outcomes: %s\n", m.Outcomes))
	sb.WriteString(fmt.Sprintf("Current prices: %s\n", m.OutcomePrices))

	if searchContext != "" {
		sb.WriteString("\nRecent web context:\n")
		sb.WriteString(searchContext)
	}

	sb.WriteString("\nAnswer in JSON:\n")
	sb.WriteString(`{"outcome": "<exact outcome label>", "price": <current price of that outcome>, "confidence": <0..1>, "reasoning": "<one sentence>"}`)

	return sb.String()
}
