package alpaca

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"marketmaker-bot/internal/application"
	"marketmaker-bot/internal/domain"
	"marketmaker-bot/internal/infrastructure/httpx"

	"github.com/shopspring/decimal"
)

const (
	DataBaseURL      = "https://data.alpaca.markets"
	latestQuotesPath = "/v2/stocks/quotes/latest"
	quoteFeed        = "iex"
)

var _ application.QuoteSource = (*MarketData)(nil)

// MarketData fetches live quotes. It makes a single attempt per call; the
// ingestor owns the retry policy. Only prices and time are decoded.
type MarketData struct {
	BaseURL string
	HTTP    *httpx.Client
}

type latestQuotesResp struct {
	Quotes map[string]struct {
		AskPrice decimal.Decimal `json:"ap"`
		BidPrice decimal.Decimal `json:"bp"`
		Time     time.Time       `json:"t"`
	} `json:"quotes"`
	Currency string `json:"currency"`
}

func (m *MarketData) LatestQuotes(ctx context.Context, symbols []string, currency string) ([]domain.Quote, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("alpaca: symbols is empty")
	}
	base := m.BaseURL
	if base == "" {
		base = DataBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("alpaca: invalid base url: %w", err)
	}
	u.Path = latestQuotesPath
	q := u.Query()
	q.Set("symbols", strings.Join(symbols, ","))
	q.Set("feed", quoteFeed)
	if currency != "" {
		q.Set("currency", currency)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("alpaca: create request: %w", err)
	}
	var body latestQuotesResp
	if err := m.HTTP.DoJSON(ctx, req, &body); err != nil {
		return nil, err
	}

	syms := make([]string, 0, len(body.Quotes))
	for s := range body.Quotes {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	out := make([]domain.Quote, 0, len(syms))
	for _, s := range syms {
		bq := body.Quotes[s]
		out = append(out, domain.Quote{
			Symbol:     s,
			AskPrice:   bq.AskPrice,
			BidPrice:   bq.BidPrice,
			Currency:   currency,
			ObservedAt: bq.Time,
		})
	}
	return out, nil
}
