// Package kalshi is the Kalshi trade API v2 adapter: market data, orders,
// portfolio and the game-to-market resolver.
package kalshi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/alejandrodnm/kalshibot/internal/adapters/restclient"
	"github.com/alejandrodnm/kalshibot/internal/domain"
)

const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"

	// documented basic tier: 10 req/s; keep 60% of it
	ratePerSec = 6
	burst      = 3
)

var environments = map[string]string{
	EnvSandbox:    "https://demo.kalshi.com/trade-api/v2",
	EnvProduction: "https://api.elections.kalshi.com/trade-api/v2",
}

// BaseURLFor returns the API root for an environment name.
func BaseURLFor(env string) (string, error) {
	u, ok := environments[env]
	if !ok {
		return "", fmt.Errorf("kalshi: invalid environment %q (sandbox|production)", env)
	}
	return u, nil
}

// Config configures a Client. BaseURL overrides Environment when set.
// Signer nil gives a read-only client: market data works, portfolio
// endpoints fail with domain.ErrAuth.
type Config struct {
	Environment string
	BaseURL     string
	Signer      *Signer
}

// Client implements ports.MarketFeed and ports.OrderExecutor.
type Client struct {
	rest   *restclient.Client
	signed bool
}

// NewClient validates cfg and builds the client.
func NewClient(cfg Config) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		env := cfg.Environment
		if env == "" {
			env = EnvSandbox
		}
		u, err := BaseURLFor(env)
		if err != nil {
			return nil, err
		}
		base = u
	}

	rc := restclient.Config{
		BaseURL:     base,
		RatePerSec:  ratePerSec,
		Burst:       burst,
		DecodeError: decodeError,
		Name:        "kalshi",
	}
	if cfg.Signer != nil {
		rc.Hook = cfg.Signer.Apply
	}
	return &Client{rest: restclient.New(rc), signed: cfg.Signer != nil}, nil
}

func (c *Client) requireAuth(op string) error {
	if !c.signed {
		return fmt.Errorf("kalshi.%s: no API credentials configured: %w", op, domain.ErrAuth)
	}
	return nil
}

// decodeError reads {"error": ..., "message": ...}. error may be a code
// string or an object with code and message.
func decodeError(status int, body []byte) error {
	apiErr := &domain.APIError{StatusCode: status}

	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Message
		var code string
		var nested struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		switch {
		case json.Unmarshal(payload.Error, &code) == nil:
			apiErr.Code = code
		case json.Unmarshal(payload.Error, &nested) == nil:
			apiErr.Code = nested.Code
			if apiErr.Message == "" {
				apiErr.Message = nested.Message
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if status == http.StatusTooManyRequests {
		apiErr.Code = "rate_limit"
		if apiErr.Message == "" {
			apiErr.Message = "Rate limit exceeded"
		}
	}
	return apiErr
}
