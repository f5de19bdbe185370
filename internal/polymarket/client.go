package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/polyai/polytrader/internal/logger"
)

// Client talks to the Polymarket Gamma API for market discovery and
// snapshots. Order placement is deliberately not implemented.
type Client struct {
	gammaHost  string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(gammaHost string, log *logger.Logger) *Client {
	return &Client{
		gammaHost:  gammaHost,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
	}
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.gammaHost+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gamma request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gamma returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// GetMarket returns the market snapshot holding the given outcome token.
func (c *Client) GetMarket(ctx context.Context, tokenID string) (Market, error) {
	params := url.Values{}
	params.Set("clob_token_ids", tokenID)

	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return Market{}, fmt.Errorf("get market %s: %w", tokenID, err)
	}

	var markets []Market
	if err := json.Unmarshal(body, &markets); err != nil {
		return Market{}, fmt.Errorf("decode market: %w", err)
	}
	if len(markets) == 0 {
		return Market{}, fmt.Errorf("no market found for token %s", tokenID)
	}
	return markets[0], nil
}

// GetTradeableEvents returns currently open events with their markets.
func (c *Client) GetTradeableEvents(ctx context.Context, limit int) ([]Event, error) {
	params := url.Values{}
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("get tradeable events: %w", err)
	}

	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}
