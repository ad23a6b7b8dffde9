package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Market identifies the venue quoting a ticker.
type Market struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

// Ticker is one venue's quote for a coin.
type Ticker struct {
	Base          string                     `json:"base"`
	Target        string                     `json:"target"`
	Market        Market                     `json:"market"`
	Last          decimal.Decimal            `json:"last"`
	ConvertedLast map[string]decimal.Decimal `json:"converted_last"`
}

// USD returns the USD-denominated converted last price, if present.
func (t Ticker) USD() (decimal.Decimal, bool) {
	v, ok := t.ConvertedLast["usd"]
	return v, ok
}

type tickersResponse struct {
	Name    string   `json:"name"`
	Tickers []Ticker `json:"tickers"`
}

// CoinTickers retrieves the per-venue ticker listing for a coin id.
func (c *Client) CoinTickers(ctx context.Context, coinID string) ([]Ticker, error) {
	if coinID == "" {
		return nil, fmt.Errorf("empty coin id")
	}
	url := fmt.Sprintf("%s/coins/%s/tickers", c.baseURL, coinID)
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

	var body tickersResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding tickers: %w", err)
	}
	return body.Tickers, nil
}
