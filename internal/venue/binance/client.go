// Package binance implements the venue gateway against the Binance USDT-M
// futures REST API.
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/vqhuy/bracketd/internal/types"
	"github.com/vqhuy/bracketd/internal/venue"
	"golang.org/x/time/rate"
)

// Config holds Binance client configuration.
type Config struct {
	BaseURL           string
	APIKey            string
	APISecret         string
	RecvWindow        time.Duration
	Timeout           time.Duration
	RequestsPerSecond int

	// OrderGoneCode is the venue code meaning "order already filled or
	// removed", recognized during cancellation. Kept as configuration
	// because venue codes are not guaranteed stable across API revisions.
	OrderGoneCode int64
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://fapi.binance.com",
		RecvWindow:        5 * time.Second,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 8,
		OrderGoneCode:     -2011,
	}
}

// Client implements venue.Gateway for Binance USDT-M futures.
type Client struct {
	cfg     Config
	logger  *slog.Logger
	http    *http.Client
	limiter *rate.Limiter
	state   atomic.Int32
}

// NewClient creates a new Binance futures client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	c := &Client{
		cfg:     cfg,
		logger:  logger,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
	}
	c.state.Store(int32(venue.StateDisconnected))
	return c
}

// sign computes the HMAC-SHA256 signature over the encoded query string.
func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.APISecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// do performs a single request/response exchange. It never retries: a
// transport failure has an ambiguous outcome and the caller decides what is
// safe to do about it.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, signed bool, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &types.TransportError{Op: method + " " + path, Err: err}
	}

	if params == nil {
		params = url.Values{}
	}
	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		if c.cfg.RecvWindow > 0 {
			params.Set("recvWindow", strconv.FormatInt(c.cfg.RecvWindow.Milliseconds(), 10))
		}
	}
	query := params.Encode()
	if signed {
		// The signature covers the query string exactly as sent, so it is
		// appended rather than re-encoded into sorted position.
		query += "&signature=" + c.sign(query)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path+"?"+query, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.state.Store(int32(venue.StateError))
		return &types.TransportError{Op: method + " " + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.state.Store(int32(venue.StateError))
		return &types.TransportError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode/100 != 2 {
		var apiErr apiError
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr != nil || apiErr.Code == 0 {
			return fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
		}
		return &types.VenueError{Code: apiErr.Code, Message: apiErr.Msg}
	}

	c.state.Store(int32(venue.StateConnected))

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Time returns the venue server time.
func (c *Client) Time(ctx context.Context) (time.Time, error) {
	var resp serverTimeResponse
	if err := c.do(ctx, http.MethodGet, "/fapi/v1/time", nil, false, &resp); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(resp.ServerTime), nil
}

// SetLeverage sets the account leverage for an instrument.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))

	var resp leverageResponse
	if err := c.do(ctx, http.MethodPost, "/fapi/v1/leverage", params, true, &resp); err != nil {
		return err
	}

	c.logger.Info("leverage set",
		"symbol", symbol,
		"leverage", resp.Leverage,
	)
	return nil
}

// PlaceMarketOrder submits a market order. RESULT response type is requested
// so the acknowledgement carries execution fields when the venue has them.
func (c *Client) PlaceMarketOrder(ctx context.Context, order venue.MarketOrder) (*venue.OrderAck, error) {
	params := url.Values{}
	params.Set("symbol", order.Symbol)
	params.Set("side", string(order.Side))
	params.Set("type", "MARKET")
	params.Set("quantity", order.Quantity.String())
	params.Set("newOrderRespType", "RESULT")
	if order.ReduceOnly {
		params.Set("reduceOnly", "true")
	}
	if order.ClientOrderID != "" {
		params.Set("newClientOrderId", order.ClientOrderID)
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/fapi/v1/order", params, true, &resp); err != nil {
		return nil, err
	}

	ack := resp.toAck()
	c.logger.Info("market order placed",
		"symbol", order.Symbol,
		"side", order.Side,
		"quantity", order.Quantity,
		"order_id", ack.OrderID,
		"status", ack.Status,
	)
	return ack, nil
}

// PlaceStopOrder submits a protective close order.
func (c *Client) PlaceStopOrder(ctx context.Context, order venue.StopOrder) (*venue.OrderAck, error) {
	params := url.Values{}
	params.Set("symbol", order.Symbol)
	params.Set("side", string(order.Side))
	params.Set("type", string(order.Kind))
	params.Set("stopPrice", order.TriggerPrice.String())
	params.Set("timeInForce", "GTC")
	if order.ClosePosition {
		params.Set("closePosition", "true")
	}
	if order.ClientOrderID != "" {
		params.Set("newClientOrderId", order.ClientOrderID)
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/fapi/v1/order", params, true, &resp); err != nil {
		return nil, err
	}

	ack := resp.toAck()
	c.logger.Info("stop order placed",
		"symbol", order.Symbol,
		"kind", order.Kind,
		"side", order.Side,
		"trigger", order.TriggerPrice,
		"order_id", ack.OrderID,
	)
	return ack, nil
}

// OpenOrders lists open orders for an instrument.
func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]venue.OpenOrder, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp []orderResponse
	if err := c.do(ctx, http.MethodGet, "/fapi/v1/openOrders", params, true, &resp); err != nil {
		return nil, err
	}

	orders := make([]venue.OpenOrder, 0, len(resp))
	for _, o := range resp {
		orders = append(orders, venue.OpenOrder{
			OrderID:       o.OrderID,
			ClientOrderID: o.ClientOrderID,
			Symbol:        o.Symbol,
			Side:          types.OrderSide(o.Side),
			Type:          o.Type,
			StopPrice:     dec(o.StopPrice),
		})
	}
	return orders, nil
}

// CancelOrder cancels an open order. The "order already gone" venue code is
// an expected race with fills and maps to AlreadyGone.
func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) (types.CancelOutcome, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))

	err := c.do(ctx, http.MethodDelete, "/fapi/v1/order", params, true, nil)
	if err == nil {
		return types.Cancelled, nil
	}

	if ve, ok := types.AsVenueError(err); ok && ve.Code == c.cfg.OrderGoneCode {
		c.logger.Debug("cancel raced with fill", "symbol", symbol, "order_id", orderID)
		return types.AlreadyGone, nil
	}
	return types.CancelFailed, err
}

// Position returns the live position for an instrument. The venue reports a
// signed quantity; an absent or zero row is a flat position.
func (c *Client) Position(ctx context.Context, symbol string) (*types.OpenPosition, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp []positionRisk
	if err := c.do(ctx, http.MethodGet, "/fapi/v2/positionRisk", params, true, &resp); err != nil {
		return nil, err
	}

	for _, p := range resp {
		if p.Symbol != symbol {
			continue
		}
		leverage, _ := strconv.Atoi(p.Leverage)
		return &types.OpenPosition{
			Symbol:     p.Symbol,
			Quantity:   dec(p.PositionAmt),
			EntryPrice: dec(p.EntryPrice),
			Leverage:   leverage,
		}, nil
	}

	return &types.OpenPosition{Symbol: symbol}, nil
}

// Reconnect pings the venue to re-establish observable connectivity.
func (c *Client) Reconnect(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/fapi/v1/ping", nil, false, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	c.logger.Info("venue connectivity confirmed", "base_url", c.cfg.BaseURL)
	return nil
}

// State reports the current connectivity state.
func (c *Client) State() venue.ConnectionState {
	return venue.ConnectionState(c.state.Load())
}

// Ensure Client implements venue.Gateway
var _ venue.Gateway = (*Client)(nil)
