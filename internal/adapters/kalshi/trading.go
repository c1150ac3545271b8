package kalshi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

// ErrInvalidOrder is returned before any request for orders the exchange
// would reject.
var ErrInvalidOrder = errors.New("invalid order")

// PlaceOrder submits req. An empty ClientOrderID gets a fresh UUID so a
// retried POST cannot create a second order.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	if err := c.requireAuth("PlaceOrder"); err != nil {
		return domain.OrderResult{}, err
	}
	body, err := buildOrder(req)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("kalshi.PlaceOrder: %w", err)
	}

	var resp orderResponse
	if err := c.rest.Post(ctx, "/portfolio/orders", body, &resp); err != nil {
		return domain.OrderResult{}, fmt.Errorf("kalshi.PlaceOrder: %s: %w", req.Ticker, err)
	}
	return toOrderResult(resp.Order), nil
}

func buildOrder(req domain.OrderRequest) (createOrderRequest, error) {
	if req.Ticker == "" {
		return createOrderRequest{}, fmt.Errorf("empty ticker: %w", ErrInvalidOrder)
	}
	if req.Count <= 0 {
		return createOrderRequest{}, fmt.Errorf("count must be positive, got %d: %w", req.Count, ErrInvalidOrder)
	}
	if req.Side != domain.SideYes && req.Side != domain.SideNo {
		return createOrderRequest{}, fmt.Errorf("side %q: %w", req.Side, ErrInvalidOrder)
	}

	cid := req.ClientOrderID
	if cid == "" {
		cid = uuid.NewString()
	}
	body := createOrderRequest{
		Ticker:        req.Ticker,
		ClientOrderID: cid,
		Side:          string(req.Side),
		Action:        string(req.Action),
		Type:          string(req.Type),
		Count:         req.Count,
	}
	if body.Action == "" {
		body.Action = string(domain.ActionBuy)
	}
	if req.Type == domain.OrderLimit {
		if req.Price < 1 || req.Price > domain.MaxLimitPrice {
			return createOrderRequest{}, fmt.Errorf("limit price must be 1-99, got %d: %w", req.Price, ErrInvalidOrder)
		}
		price := req.Price
		if req.Side == domain.SideYes {
			body.YesPrice = &price
		} else {
			body.NoPrice = &price
		}
	} else {
		body.Type = string(domain.OrderMarket)
	}
	return body, nil
}

// GetOrders lists orders, optionally filtered by ticker and status.
func (c *Client) GetOrders(ctx context.Context, ticker, status string) ([]domain.OrderResult, error) {
	if err := c.requireAuth("GetOrders"); err != nil {
		return nil, err
	}
	var (
		out    []domain.OrderResult
		cursor string
	)
	for page := 0; page < maxPages; page++ {
		q := url.Values{"limit": {strconv.Itoa(defaultPageSize)}}
		if ticker != "" {
			q.Set("ticker", ticker)
		}
		if status != "" {
			q.Set("status", status)
		}
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		var resp ordersResponse
		if err := c.rest.Get(ctx, "/portfolio/orders", q, &resp); err != nil {
			return nil, fmt.Errorf("kalshi.GetOrders: %w", err)
		}
		for _, o := range resp.Orders {
			out = append(out, toOrderResult(o))
		}
		if resp.Cursor == "" || len(resp.Orders) == 0 {
			break
		}
		cursor = resp.Cursor
	}
	return out, nil
}

// CancelOrder cancels an open order.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if err := c.requireAuth("CancelOrder"); err != nil {
		return err
	}
	if err := c.rest.Delete(ctx, "/portfolio/orders/"+url.PathEscape(orderID), nil); err != nil {
		return fmt.Errorf("kalshi.CancelOrder: %s: %w", orderID, err)
	}
	return nil
}

// GetBalance returns available balance and pending payout in cents.
func (c *Client) GetBalance(ctx context.Context) (domain.Balance, error) {
	if err := c.requireAuth("GetBalance"); err != nil {
		return domain.Balance{}, err
	}
	var resp balanceResponse
	if err := c.rest.Get(ctx, "/portfolio/balance", nil, &resp); err != nil {
		return domain.Balance{}, fmt.Errorf("kalshi.GetBalance: %w", err)
	}
	return domain.Balance{Available: resp.Balance, Pending: resp.Payout}, nil
}

// GetPositions returns market positions; empty ticker means all.
func (c *Client) GetPositions(ctx context.Context, ticker string) ([]domain.Position, error) {
	if err := c.requireAuth("GetPositions"); err != nil {
		return nil, err
	}
	var (
		out    []domain.Position
		cursor string
	)
	for page := 0; page < maxPages; page++ {
		q := url.Values{"limit": {strconv.Itoa(defaultPageSize)}}
		if ticker != "" {
			q.Set("ticker", ticker)
		}
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		var resp positionsResponse
		if err := c.rest.Get(ctx, "/portfolio/positions", q, &resp); err != nil {
			return nil, fmt.Errorf("kalshi.GetPositions: %w", err)
		}
		for _, p := range resp.MarketPositions {
			out = append(out, toPosition(p))
		}
		if resp.Cursor == "" || len(resp.MarketPositions) == 0 {
			break
		}
		cursor = resp.Cursor
	}
	return out, nil
}
