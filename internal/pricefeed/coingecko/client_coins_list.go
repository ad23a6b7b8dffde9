package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Coin is one entry of the CoinGecko coin catalog.
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// CoinsList retrieves the full coin catalog (id, symbol, name per coin).
// The catalog is large (~15k entries) but the API returns it in a single
// response; no pagination.
func (c *Client) CoinsList(ctx context.Context) ([]Coin, error) {
	url := fmt.Sprintf("%s/coins/list", c.baseURL)
	if enc := c.query.Encode(); enc != "" {
		url += "?" + enc
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if err := checkStatus(res.StatusCode); err != nil {
		return nil, err
	}

	var coins []Coin
	if err := json.NewDecoder(res.Body).Decode(&coins); err != nil {
		return nil, fmt.Errorf("decoding coins list: %w", err)
	}
	return coins, nil
}

func checkStatus(code int) error {
	switch code {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("unauthorized")
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited")
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}
