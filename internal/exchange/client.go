package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.lbkex.com"

// Client talks to the exchange's supplement REST API.
type Client struct {
	rc     *resty.Client
	apiKey string
	signer Signer
	log    logrus.FieldLogger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSigner installs the request-signing capability.
func WithSigner(s Signer) ClientOption {
	return func(c *Client) { c.signer = s }
}

// WithLogger sets the logger for request outcomes.
func WithLogger(log logrus.FieldLogger) ClientOption {
	return func(c *Client) { c.log = log }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.rc.SetTimeout(d) }
}

func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(10 * time.Second).
		SetHeader("User-Agent", "price-oracle/1.0").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// only retry idempotent reads
			if r == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	c := &Client{rc: rc, apiKey: apiKey, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common response wrapper. result comes back as a bool on
// some endpoints and the string "true" on others.
type envelope struct {
	Result    any             `json:"result"`
	ErrorCode int             `json:"error_code"`
	Msg       string          `json:"msg"`
	Data      json.RawMessage `json:"data"`
}

func (e *envelope) ok() bool {
	switch v := e.Result.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// authParams builds the signed form payload for authenticated calls.
func (c *Client) authParams(extra map[string]string) map[string]string {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	for k, v := range extra {
		params.Set(k, v)
	}
	form := make(map[string]string, len(params)+1)
	for k := range params {
		form[k] = params.Get(k)
	}
	if c.signer != nil {
		form["sign"] = c.signer(params)
	}
	return form
}

func (c *Client) post(ctx context.Context, endpoint string, form map[string]string) (*envelope, error) {
	var env envelope
	resp, err := c.rc.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&env).
		Post(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "POST %s", endpoint)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Errorf("POST %s: status %d: %s", endpoint, resp.StatusCode(), resp.String())
	}
	if !env.ok() {
		return nil, errors.Errorf("POST %s: exchange error code=%d msg=%q", endpoint, env.ErrorCode, env.Msg)
	}
	return &env, nil
}

type assetInfo struct {
	Coin      string          `json:"coin"`
	UsableAmt decimal.Decimal `json:"usableAmt"`
	AssetAmt  decimal.Decimal `json:"assetAmt"`
	FreezeAmt decimal.Decimal `json:"freezeAmt"`
}

// Balance reads the current balance of one asset. An asset the account has
// never held is reported with all-zero amounts, mirroring the exchange.
func (c *Client) Balance(ctx context.Context, asset string) (BalanceSnapshot, error) {
	env, err := c.post(ctx, "/v2/supplement/user_info.do", c.authParams(nil))
	if err != nil {
		return BalanceSnapshot{}, errors.Wrap(err, "fetch account info")
	}

	var assets []assetInfo
	if err := json.Unmarshal(env.Data, &assets); err != nil {
		return BalanceSnapshot{}, errors.Wrap(err, "decode account info")
	}

	for _, a := range assets {
		if strings.EqualFold(a.Coin, asset) {
			return BalanceSnapshot{
				Asset:  asset,
				Usable: a.UsableAmt,
				Total:  a.AssetAmt,
				Frozen: a.FreezeAmt,
			}, nil
		}
	}
	return BalanceSnapshot{Asset: asset}, nil
}

type pairPrice struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// TickerPrice returns the exchange's own latest price for a trading pair,
// e.g. "mntl_usdt".
func (c *Client) TickerPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	var env envelope
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("symbol", pair).
		SetResult(&env).
		Get("/v2/supplement/ticker/price.do")
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "fetch ticker price")
	}
	if resp.StatusCode() != http.StatusOK {
		return decimal.Decimal{}, errors.Errorf("ticker price: status %d", resp.StatusCode())
	}
	if !env.ok() {
		return decimal.Decimal{}, errors.Errorf("ticker price: exchange error code=%d msg=%q", env.ErrorCode, env.Msg)
	}

	var pairs []pairPrice
	if err := json.Unmarshal(env.Data, &pairs); err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "decode ticker price")
	}
	for _, p := range pairs {
		if p.Symbol == pair {
			return p.Price, nil
		}
	}
	return decimal.Decimal{}, errors.Errorf("no price for pair %q", pair)
}

type orderAck struct {
	OrderID  string `json:"order_id"`
	CustomID string `json:"custom_id"`
}

// CreateMarketOrder submits a market order. For buys the amount is
// denominated in the quote currency, for sells in the base asset, matching
// the exchange's convention.
func (c *Client) CreateMarketOrder(ctx context.Context, pair string, side Side, amount decimal.Decimal) (Order, error) {
	if side != SideBuyMarket && side != SideSellMarket {
		return Order{}, errors.Errorf("side %q is not a market side", side)
	}
	return c.createOrder(ctx, pair, side, amount, decimal.Decimal{})
}

// CreateLimitOrder submits a limit order at the given price.
func (c *Client) CreateLimitOrder(ctx context.Context, pair string, side Side, amount, price decimal.Decimal) (Order, error) {
	if side != SideBuy && side != SideSell {
		return Order{}, errors.Errorf("side %q is not a limit side", side)
	}
	return c.createOrder(ctx, pair, side, amount, price)
}

func (c *Client) createOrder(ctx context.Context, pair string, side Side, amount, price decimal.Decimal) (Order, error) {
	customID := uuid.NewString()
	form := map[string]string{
		"symbol":    pair,
		"type":      string(side),
		"amount":    amount.String(),
		"custom_id": customID,
	}
	if !price.IsZero() {
		form["price"] = price.String()
	}

	env, err := c.post(ctx, "/v2/supplement/create_order.do", c.authParams(form))
	if err != nil {
		return Order{}, errors.Wrapf(err, "create %s order on %s", side, pair)
	}

	var ack orderAck
	if err := json.Unmarshal(env.Data, &ack); err != nil {
		return Order{}, errors.Wrap(err, "decode order ack")
	}

	order := Order{
		OrderID:   ack.OrderID,
		CustomID:  customID,
		Symbol:    pair,
		Side:      side,
		Amount:    amount,
		Price:     price,
		CreatedAt: time.Now(),
	}
	c.log.WithFields(logrus.Fields{
		"pair":     pair,
		"side":     side,
		"amount":   amount.String(),
		"order_id": order.OrderID,
	}).Info("order submitted")
	return order, nil
}

// CancelAllOrders cancels every open order on a pair.
func (c *Client) CancelAllOrders(ctx context.Context, pair string) error {
	_, err := c.post(ctx, "/v2/supplement/cancel_order_by_symbol.do", c.authParams(map[string]string{
		"symbol": pair,
	}))
	return errors.Wrapf(err, "cancel orders on %s", pair)
}
