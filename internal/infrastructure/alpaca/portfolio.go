package alpaca

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"marketmaker-bot/internal/application"
	"marketmaker-bot/internal/domain"

	"github.com/shopspring/decimal"
)

const portfolioHistoryPath = "/v2/account/portfolio/history"

var _ application.PortfolioSource = (*TradingClient)(nil)

type portfolioHistoryResp struct {
	Timestamp     []int64           `json:"timestamp"`
	Equity        []decimal.Decimal `json:"equity"`
	ProfitLoss    []decimal.Decimal `json:"profit_loss"`
	ProfitLossPct []decimal.Decimal `json:"profit_loss_pct"`
	BaseValue     decimal.Decimal   `json:"base_value"`
	Timeframe     string            `json:"timeframe"`
}

// PortfolioHistory makes a single attempt; PortfolioService applies the retry policy.
func (c *TradingClient) PortfolioHistory(ctx context.Context, hq application.HistoryQuery) (domain.PortfolioHistory, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return domain.PortfolioHistory{}, fmt.Errorf("alpaca: invalid base url: %w", err)
	}
	u.Path = portfolioHistoryPath
	q := u.Query()
	q.Set("period", hq.Period)
	q.Set("timeframe", hq.Timeframe)
	q.Set("intraday_reporting", "continuous")
	if !hq.Start.IsZero() {
		q.Set("start", hq.Start.UTC().Format(time.RFC3339))
	}
	q.Set("pnl_reset", "per_day")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.PortfolioHistory{}, fmt.Errorf("alpaca: create request: %w", err)
	}
	var body portfolioHistoryResp
	if err := c.HTTP.DoJSON(ctx, req, &body); err != nil {
		return domain.PortfolioHistory{}, err
	}
	return domain.PortfolioHistory{
		Timestamps:    body.Timestamp,
		Equity:        body.Equity,
		ProfitLoss:    body.ProfitLoss,
		ProfitLossPct: body.ProfitLossPct,
		BaseValue:     body.BaseValue,
		Timeframe:     body.Timeframe,
	}, nil
}
