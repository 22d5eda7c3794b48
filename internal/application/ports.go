package application

import (
	"context"

	"marketmaker-bot/internal/domain"
)

// QuoteStore reads the shared append-only quote table.
type QuoteStore interface {
	LatestQuote(ctx context.Context, symbol string) (domain.Quote, error)
}

// QuoteSink appends freshly observed quotes to the shared table.
type QuoteSink interface {
	AppendQuotes(ctx context.Context, quotes []domain.Quote) error
}

type OrderClient interface {
	ListOpenOrders(ctx context.Context) ([]domain.Order, error)
	CancelAllOpenOrders(ctx context.Context) error
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error)
}

// QuoteSource fetches the latest live quotes from the market-data API.
type QuoteSource interface {
	LatestQuotes(ctx context.Context, symbols []string, currency string) ([]domain.Quote, error)
}

type PortfolioSource interface {
	PortfolioHistory(ctx context.Context, q HistoryQuery) (domain.PortfolioHistory, error)
}
