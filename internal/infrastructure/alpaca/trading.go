// Package alpaca talks to the brokerage's trading and market-data REST APIs.
package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"marketmaker-bot/internal/application"
	"marketmaker-bot/internal/domain"
	"marketmaker-bot/internal/infrastructure/httpx"
	"marketmaker-bot/internal/retry"

	alpacaapi "github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	PaperTradingBaseURL = "https://paper-api.alpaca.markets"
	ordersPath          = "/v2/orders"
)

var _ application.OrderClient = (*TradingClient)(nil)

// TradingClient covers the order endpoints. Each operation runs under its own
// retry policy. Listing and cancelling go through the SDK; placing builds the
// order body itself because qty must be sent as a JSON integer.
type TradingClient struct {
	BaseURL string
	HTTP    *httpx.Client
	API     *alpacaapi.Client

	ListPolicy   retry.Policy
	CancelPolicy retry.Policy
	PlacePolicy  retry.Policy
}

func NewTradingClient(baseURL string, hc *httpx.Client, log *zap.Logger) *TradingClient {
	if baseURL == "" {
		baseURL = PaperTradingBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	opts := alpacaapi.ClientOpts{
		BaseURL: baseURL,
		// the SDK resends only on 429; retry.Policy owns every other retry
		RetryLimit: 1,
	}
	if hc != nil {
		opts.APIKey, opts.APISecret, opts.HTTPClient = hc.KeyID, hc.SecretKey, hc.HTTP
	}
	return &TradingClient{
		BaseURL:      baseURL,
		HTTP:         hc,
		API:          alpacaapi.NewClient(opts),
		ListPolicy:   retry.HTTP("alpaca.list_orders", log),
		CancelPolicy: retry.HTTP("alpaca.cancel_orders", log),
		PlacePolicy:  retry.OrderPlacement("alpaca.place_order", log),
	}
}

type orderResp struct {
	ID            string              `json:"id"`
	ClientOrderID string              `json:"client_order_id"`
	Symbol        string              `json:"symbol"`
	Qty           decimal.NullDecimal `json:"qty"`
	Side          string              `json:"side"`
	Type          string              `json:"type"`
	TimeInForce   string              `json:"time_in_force"`
	Status        string              `json:"status"`
}

// toDomain is lenient: order types this bot never places still list fine.
func (o orderResp) toDomain() domain.Order {
	out := domain.Order{
		ID:       o.ID,
		ClientID: o.ClientOrderID,
		Symbol:   o.Symbol,
		Status:   o.Status,
	}
	if o.Side == "sell" {
		out.Side = domain.SideSell
	}
	if t, err := domain.ParseOrderType(o.Type); err == nil {
		out.Type = t
	}
	if tif, err := domain.ParseTimeInForce(o.TimeInForce); err == nil {
		out.TimeInForce = tif
	}
	if o.Qty.Valid {
		out.Quantity = o.Qty.Decimal.IntPart()
	}
	return out
}

func fromSDKOrder(o alpacaapi.Order) domain.Order {
	r := orderResp{
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          string(o.Side),
		Type:          string(o.Type),
		TimeInForce:   string(o.TimeInForce),
		Status:        o.Status,
	}
	if o.Qty != nil {
		r.Qty = decimal.NewNullDecimal(*o.Qty)
	}
	return r.toDomain()
}

// sdkError maps SDK failures onto the retryable domain errors.
func sdkError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var apiErr *alpacaapi.APIError
	if errors.As(err, &apiErr) {
		return &domain.RemoteError{StatusCode: apiErr.StatusCode, Body: apiErr.Message}
	}
	return &domain.TransportError{Err: err}
}

func (c *TradingClient) ordersURL() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("alpaca: invalid base url: %w", err)
	}
	u.Path = ordersPath
	return u.String(), nil
}

func (c *TradingClient) ListOpenOrders(ctx context.Context) ([]domain.Order, error) {
	return retry.Do(ctx, c.ListPolicy, func(ctx context.Context) ([]domain.Order, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := c.API.GetOrders(alpacaapi.GetOrdersRequest{Status: "open"})
		if err != nil {
			return nil, sdkError(ctx, err)
		}
		out := make([]domain.Order, 0, len(body))
		for _, o := range body {
			out = append(out, fromSDKOrder(o))
		}
		return out, nil
	})
}

func (c *TradingClient) CancelAllOpenOrders(ctx context.Context) error {
	return retry.Run(ctx, c.CancelPolicy, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.API.CancelAllOrders(); err != nil {
			return sdkError(ctx, err)
		}
		return nil
	})
}

func (c *TradingClient) PlaceOrder(ctx context.Context, in domain.OrderRequest) (domain.Order, error) {
	endpoint, err := c.ordersURL()
	if err != nil {
		return domain.Order{}, err
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return domain.Order{}, fmt.Errorf("alpaca: encode order: %w", err)
	}
	return retry.Do(ctx, c.PlacePolicy, func(ctx context.Context) (domain.Order, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return domain.Order{}, fmt.Errorf("alpaca: create request: %w", err)
		}
		req.Header.Set("content-type", "application/json")
		var body orderResp
		if err := c.HTTP.DoJSON(ctx, req, &body); err != nil {
			return domain.Order{}, err
		}
		if body.ID == "" {
			return domain.Order{}, fmt.Errorf("alpaca: order response without id")
		}
		return body.toDomain(), nil
	})
}
