package provider

import (
	"context"
	"sort"
	"time"

	"marketmaker-bot/internal/application"
	"marketmaker-bot/internal/domain"

	"github.com/shopspring/decimal"
)

// Ensure Fake implements application.QuoteSource.
var _ application.QuoteSource = (*Fake)(nil)

// Fake quotes every symbol at a fixed bid and ask. It stands in for the
// market-data API when MARKET_DATA=fake.
type Fake struct {
	bid decimal.Decimal
	ask decimal.Decimal
}

func NewFake(bid, ask decimal.Decimal) *Fake { return &Fake{bid: bid, ask: ask} }

func (f *Fake) LatestQuotes(_ context.Context, symbols []string, currency string) ([]domain.Quote, error) {
	out := make([]domain.Quote, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, domain.Quote{
			Symbol:     s,
			AskPrice:   f.ask,
			BidPrice:   f.bid,
			Currency:   currency,
			ObservedAt: time.Now().UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}
