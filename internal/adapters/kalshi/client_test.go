package kalshi_test

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alejandrodnm/kalshibot/internal/adapters/kalshi"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiPrefix = "/trade-api/v2"

func newSignedClient(t *testing.T, handler http.HandlerFunc) (*kalshi.Client, *rsa.PrivateKey) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	key := genKey(t)
	c, err := kalshi.NewClient(kalshi.Config{
		BaseURL: srv.URL + apiPrefix,
		Signer:  kalshi.NewSigner("key-1", key),
	})
	require.NoError(t, err)
	return c, key
}

func TestBaseURLFor(t *testing.T) {
	u, err := kalshi.BaseURLFor("sandbox")
	require.NoError(t, err)
	assert.Equal(t, "https://demo.kalshi.com/trade-api/v2", u)

	u, err = kalshi.BaseURLFor("production")
	require.NoError(t, err)
	assert.Equal(t, "https://api.elections.kalshi.com/trade-api/v2", u)

	_, err = kalshi.NewClient(kalshi.Config{Environment: "staging"})
	assert.Error(t, err)
}

func TestClient_SignsFullPathWithoutQuery(t *testing.T) {
	var key *rsa.PrivateKey
	c, key := newSignedClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("KALSHI-ACCESS-KEY"))
		ts := r.Header.Get("KALSHI-ACCESS-TIMESTAMP")
		require.NotEmpty(t, ts)
		verify(t, &key.PublicKey, ts+"GET"+apiPrefix+"/portfolio/positions", r.Header.Get("KALSHI-ACCESS-SIGNATURE"))
		assert.Equal(t, "NFL-KC", r.URL.Query().Get("ticker"))
		w.Write([]byte(`{"market_positions":[{"ticker":"NFL-KC","market_exposure":700,"position":10,"realized_pnl":-50}]}`))
	})

	positions, err := c.GetPositions(context.Background(), "NFL-KC")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, domain.Position{Ticker: "NFL-KC", MarketExposure: 700, Position: 10, RealizedPnL: -50}, positions[0])
}

func TestListMarkets_FollowsCursor(t *testing.T) {
	calls := 0
	c, _ := newSignedClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiPrefix+"/markets", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		calls++
		if r.URL.Query().Get("cursor") == "" {
			w.Write([]byte(`{"markets":[{"ticker":"NFL-A","status":"active","yes_bid":40,"yes_ask":42,"no_bid":56,"no_ask":58,"volume":10,"open_interest":3}],"cursor":"p2"}`))
			return
		}
		assert.Equal(t, "p2", r.URL.Query().Get("cursor"))
		w.Write([]byte(`{"markets":[{"ticker":"NFL-B","status":"closed"}],"cursor":""}`))
	})

	markets, err := c.ListMarkets(context.Background(), ports.MarketFilter{Status: "open"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, markets, 2)
	assert.Equal(t, domain.MarketOpen, markets[0].Status)
	assert.Equal(t, 42, markets[0].YesAsk)
	assert.Equal(t, 58, markets[0].NoAsk)
	assert.Equal(t, 3, markets[0].OpenInterest)
	assert.Equal(t, domain.MarketClosed, markets[1].Status)
}

func TestGetMarket(t *testing.T) {
	c, _ := newSignedClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiPrefix+"/markets/NFL-KC", r.URL.Path)
		w.Write([]byte(`{"market":{"ticker":"NFL-KC","event_ticker":"NFL-EV","title":"Chiefs win?","status":"open","yes_ask":70,"no_ask":31}}`))
	})
	m, err := c.GetMarket(context.Background(), "NFL-KC")
	require.NoError(t, err)
	assert.Equal(t, "NFL-EV", m.EventTicker)
	assert.True(t, m.IsOpen())
	assert.Equal(t, 70, m.AskFor(domain.SideYes))
}

func TestPlaceOrder_LimitNoSide(t *testing.T) {
	c, _ := newSignedClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, apiPrefix+"/portfolio/orders", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "NFL-KC", body["ticker"])
		assert.Equal(t, "no", body["side"])
		assert.Equal(t, "buy", body["action"])
		assert.Equal(t, "limit", body["type"])
		assert.EqualValues(t, 5, body["count"])
		assert.EqualValues(t, 33, body["no_price"])
		assert.NotContains(t, body, "yes_price")
		assert.NotEmpty(t, body["client_order_id"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"order":{"order_id":"ord-1","ticker":"NFL-KC","status":"resting","side":"no","action":"buy","type":"limit","count":5,"remaining_count":5,"no_price":33,"created_time":"2024-10-06T20:00:00Z"}}`))
	})

	res, err := c.PlaceOrder(context.Background(), domain.OrderRequest{
		Ticker: "NFL-KC", Side: domain.SideNo, Action: domain.ActionBuy,
		Type: domain.OrderLimit, Count: 5, Price: 33,
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", res.ID)
	assert.Equal(t, domain.OrderOpen, res.Status)
	assert.Equal(t, 33, res.Price)
}

func TestPlaceOrder_MarketOmitsPrices(t *testing.T) {
	c, _ := newSignedClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "market", body["type"])
		assert.Equal(t, "cid-7", body["client_order_id"])
		assert.NotContains(t, body, "yes_price")
		assert.NotContains(t, body, "no_price")
		w.Write([]byte(`{"order":{"order_id":"ord-2","status":"filled","side":"yes","action":"buy","count":1}}`))
	})

	res, err := c.PlaceOrder(context.Background(), domain.OrderRequest{
		Ticker: "NFL-KC", ClientOrderID: "cid-7", Side: domain.SideYes,
		Action: domain.ActionBuy, Type: domain.OrderMarket, Count: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderFilled, res.Status)
}

func TestPlaceOrder_Validation(t *testing.T) {
	c, _ := newSignedClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid orders must not reach the API")
	})

	cases := []domain.OrderRequest{
		{Ticker: "T", Side: domain.SideYes, Type: domain.OrderLimit, Count: 0, Price: 50},
		{Ticker: "T", Side: domain.SideYes, Type: domain.OrderLimit, Count: 1, Price: 100},
		{Ticker: "T", Side: domain.SideYes, Type: domain.OrderLimit, Count: 1, Price: 0},
		{Ticker: "T", Side: "maybe", Type: domain.OrderMarket, Count: 1},
	}
	for _, req := range cases {
		_, err := c.PlaceOrder(context.Background(), req)
		assert.ErrorIs(t, err, kalshi.ErrInvalidOrder)
	}
}

func TestErrors_APIErrorFields(t *testing.T) {
	c, _ := newSignedClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"insufficient_balance","message":"Not enough funds"}`))
	})

	_, err := c.GetBalance(context.Background())
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, "insufficient_balance", apiErr.Code)
	assert.Equal(t, "Not enough funds", apiErr.Message)
	assert.False(t, errors.Is(err, domain.ErrRateLimited))
}

func TestErrors_NestedErrorObject(t *testing.T) {
	c, _ := newSignedClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"authentication_error","message":"bad signature"}}`))
	})

	_, err := c.GetBalance(context.Background())
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "authentication_error", apiErr.Code)
	assert.Equal(t, "bad signature", apiErr.Message)
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestGetBalanceAndCancel(t *testing.T) {
	c, _ := newSignedClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			assert.Equal(t, apiPrefix+"/portfolio/orders/ord-1", r.URL.Path)
			w.Write([]byte(`{"order":{"order_id":"ord-1","status":"canceled"}}`))
		default:
			w.Write([]byte(`{"balance":125000,"payout":3000}`))
		}
	})

	bal, err := c.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Balance{Available: 125000, Pending: 3000}, bal)
	require.NoError(t, c.CancelOrder(context.Background(), "ord-1"))
}

func TestReadOnlyClient_PortfolioNeedsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("KALSHI-ACCESS-SIGNATURE"))
		w.Write([]byte(`{"market":{"ticker":"NFL-KC","status":"open"}}`))
	}))
	defer srv.Close()

	c, err := kalshi.NewClient(kalshi.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.GetMarket(context.Background(), "NFL-KC")
	require.NoError(t, err)

	_, err = c.PlaceOrder(context.Background(), domain.OrderRequest{Ticker: "NFL-KC", Side: domain.SideYes, Count: 1})
	assert.ErrorIs(t, err, domain.ErrAuth)
	_, err = c.GetPositions(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrAuth)
}
