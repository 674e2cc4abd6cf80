// Package balance is the HTTP client for the external balance service. The
// service owns the account balances; this side only reads and conditionally
// overwrites them.
package balance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

// BalanceResponse mirrors the balance service wire format.
// swagger:model BalanceResponse
type BalanceResponse struct {
	UserID  int64           `json:"user_id" example:"1"`
	Balance decimal.Decimal `json:"balance" example:"100.00"`
}

// UpdateRequest sets an absolute balance for an account.
// swagger:model BalanceUpdateRequest
type UpdateRequest struct {
	Balance decimal.Decimal `json:"balance" example:"75.00"`
}

type Client struct {
	HTTP    *http.Client
	BaseURL string
	breaker *gobreaker.CircuitBreaker[decimal.Decimal]
}

func NewClient(baseURL string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		BaseURL: baseURL,
		breaker: gobreaker.NewCircuitBreaker[decimal.Decimal](gobreaker.Settings{
			Name:    "balance-service",
			Timeout: 10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

func (c *Client) GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return c.breaker.Execute(func() (decimal.Decimal, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/balance/%d", c.BaseURL, accountID), nil)
		if err != nil {
			return decimal.Zero, err
		}
		return c.do(req)
	})
}

// SetBalance overwrites the account balance and returns the value as stored.
func (c *Client) SetBalance(ctx context.Context, accountID int64, balance decimal.Decimal) (decimal.Decimal, error) {
	return c.breaker.Execute(func() (decimal.Decimal, error) {
		body, err := json.Marshal(UpdateRequest{Balance: balance})
		if err != nil {
			return decimal.Zero, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPut,
			fmt.Sprintf("%s/balance/%d", c.BaseURL, accountID), bytes.NewReader(body))
		if err != nil {
			return decimal.Zero, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.do(req)
	})
}

func (c *Client) do(req *http.Request) (decimal.Decimal, error) {
	res, err := c.HTTP.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("balance service: %s", res.Status)
	}
	var out BalanceResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return decimal.Zero, err
	}
	return out.Balance, nil
}
