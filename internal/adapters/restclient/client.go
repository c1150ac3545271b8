// Package restclient es el cliente HTTP JSON compartido por los adapters:
// rate limiting, reintentos con backoff exponencial y traducción de status
// HTTP a los errores de domain.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/kalshibot/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	maxRetries     = 3
	baseRetryWait  = 500 * time.Millisecond
)

// RequestHook se ejecuta sobre cada intento antes de enviarlo (firmas, headers).
type RequestHook func(req *http.Request) error

// ErrorDecoder convierte una respuesta 4xx/5xx en error. body ya está leído.
type ErrorDecoder func(status int, body []byte) error

// Config parametriza un Client.
type Config struct {
	BaseURL    string
	RatePerSec float64
	Burst      int
	Timeout    time.Duration
	// MaxRetries < 0 desactiva reintentos; 0 usa el default.
	MaxRetries  int
	RetryWait   time.Duration
	Hook        RequestHook
	DecodeError ErrorDecoder
	Name        string // para logs
}

// Client es un HTTP client JSON con rate limiting y retries.
type Client struct {
	http      *http.Client
	base      string
	limiter   *rate.Limiter
	retries   int
	retryWait time.Duration
	hook      RequestHook
	decodeErr ErrorDecoder
	name      string
}

// New crea un Client. RatePerSec <= 0 desactiva el rate limiting.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	retries := cfg.MaxRetries
	switch {
	case retries == 0:
		retries = maxRetries
	case retries < 0:
		retries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = baseRetryWait
	}
	if cfg.DecodeError == nil {
		cfg.DecodeError = DefaultErrorDecoder
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		limiter:   rate.NewLimiter(limit, cfg.Burst),
		retries:   retries,
		retryWait: cfg.RetryWait,
		hook:      cfg.Hook,
		decodeErr: cfg.DecodeError,
		name:      cfg.Name,
	}
}

// BaseURL devuelve el base URL sin barra final.
func (c *Client) BaseURL() string {
	return c.base
}

// Get hace un GET con query params.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post hace un POST JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Delete hace un DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do ejecuta la petición con backoff exponencial. 429 y 5xx se reintentan;
// agotados los reintentos se devuelve el error decodificado, así que un 429
// persistente sigue siendo errors.Is(err, domain.ErrRateLimited).
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		payload = b
	}

	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := c.send(ctx, method, target, payload)
		if err != nil {
			if errors.Is(err, domain.ErrAuth) || ctx.Err() != nil {
				return err
			}
			lastErr = err
			if attempt == c.retries {
				return fmt.Errorf("request failed after %d retries: %w", c.retries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			raw, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = c.decodeErr(resp.StatusCode, raw)

			retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
			if !retryable || attempt == c.retries {
				return lastErr
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				slog.Warn("rate limited by API", "api", c.name, "attempt", attempt+1)
			}
			c.sleep(ctx, attempt)
			continue
		}

		err = decodeBody(resp, out)
		resp.Body.Close()
		return err
	}
	return fmt.Errorf("exhausted %d retries: %w", c.retries, lastErr)
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte) (*http.Response, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// la firma depende del timestamp: se regenera en cada intento
	if c.hook != nil {
		if err := c.hook(req); err != nil {
			return nil, err
		}
	}
	return c.http.Do(req)
}

func decodeBody(resp *http.Response, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// DefaultErrorDecoder devuelve un *domain.APIError con el body como mensaje.
func DefaultErrorDecoder(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	code := ""
	if status == http.StatusTooManyRequests {
		code = "rate_limit"
	}
	return &domain.APIError{StatusCode: status, Code: code, Message: msg}
}
