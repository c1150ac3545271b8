package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRateLimited is matched by errors.Is for any upstream 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrAuth marks credential failures. Fatal for a trading run.
	ErrAuth = errors.New("authentication failed")
	// ErrNoMarket is returned when no market can be associated with a game.
	ErrNoMarket = errors.New("no market for game")
)

// APIError is a non-2xx response from an upstream API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match the sentinels by status code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrAuth:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}
