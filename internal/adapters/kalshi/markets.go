package kalshi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

const (
	defaultPageSize = 100
	maxPages        = 50
)

// ListMarkets follows the cursor until exhausted. filter.Limit is the page size.
func (c *Client) ListMarkets(ctx context.Context, filter ports.MarketFilter) ([]domain.MarketState, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	var (
		out    []domain.MarketState
		cursor string
	)
	for page := 0; page < maxPages; page++ {
		q := url.Values{"limit": {strconv.Itoa(limit)}}
		if filter.EventTicker != "" {
			q.Set("event_ticker", filter.EventTicker)
		}
		if filter.Status != "" {
			q.Set("status", filter.Status)
		}
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var resp marketsResponse
		if err := c.rest.Get(ctx, "/markets", q, &resp); err != nil {
			return nil, fmt.Errorf("kalshi.ListMarkets: page %d: %w", page, err)
		}
		for _, m := range resp.Markets {
			out = append(out, toMarketState(m))
		}
		if resp.Cursor == "" || len(resp.Markets) == 0 {
			return out, nil
		}
		cursor = resp.Cursor
	}
	return out, nil
}

// GetMarket returns the current quote for ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (domain.MarketState, error) {
	var resp marketResponse
	if err := c.rest.Get(ctx, "/markets/"+url.PathEscape(ticker), nil, &resp); err != nil {
		return domain.MarketState{}, fmt.Errorf("kalshi.GetMarket: %s: %w", ticker, err)
	}
	return toMarketState(resp.Market), nil
}
