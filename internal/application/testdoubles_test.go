package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marketmaker-bot/internal/domain"
	"marketmaker-bot/internal/retry"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func fastQuotePolicy(log *zap.Logger) retry.Policy {
	p := retry.QuoteTable("quote_store.latest", log)
	p.Delay = time.Millisecond
	return p
}

type fakeQuoteStore struct {
	mu    sync.Mutex
	quote domain.Quote
	errs  []error // returned in order before quote
	calls int
}

func (f *fakeQuoteStore) LatestQuote(_ context.Context, symbol string) (domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		if len(f.errs) > 1 {
			f.errs = f.errs[1:]
		}
		if err != nil {
			return domain.Quote{}, err
		}
	}
	q := f.quote
	q.Symbol = symbol
	return q, nil
}

// fakeOrderClient records every call in order.
type fakeOrderClient struct {
	mu       sync.Mutex
	open     []domain.Order
	calls    []string
	placed   []domain.OrderRequest
	listErr  error
	placeErr error
	nextID   int
}

func (f *fakeOrderClient) ListOpenOrders(context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.open, nil
}

func (f *fakeOrderClient) CancelAllOpenOrders(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "cancel")
	f.open = nil
	return nil
}

func (f *fakeOrderClient) PlaceOrder(_ context.Context, req domain.OrderRequest) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "place:"+req.Side.String())
	if f.placeErr != nil {
		return domain.Order{}, f.placeErr
	}
	f.nextID++
	f.placed = append(f.placed, req)
	return domain.Order{
		ID:          fmt.Sprintf("order-%d", f.nextID),
		Symbol:      req.Symbol,
		Side:        req.Side,
		Type:        req.Type,
		TimeInForce: req.TimeInForce,
		Quantity:    req.Quantity,
		Status:      "accepted",
	}, nil
}

func (f *fakeOrderClient) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

type fakeLease struct {
	held bool
	err  error
}

func (f fakeLease) TryAcquire(context.Context, string) (bool, error) { return f.held, f.err }

type fakeQuoteSource struct {
	quotes []domain.Quote
	errs   []error
	calls  int
	gotCur string
}

func (f *fakeQuoteSource) LatestQuotes(_ context.Context, _ []string, currency string) ([]domain.Quote, error) {
	f.calls++
	f.gotCur = currency
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	out := make([]domain.Quote, len(f.quotes))
	copy(out, f.quotes)
	return out, nil
}

type fakeQuoteSink struct {
	rows []domain.Quote
	err  error
}

func (f *fakeQuoteSink) AppendQuotes(_ context.Context, quotes []domain.Quote) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, quotes...)
	return nil
}

type fakePortfolioSource struct {
	history domain.PortfolioHistory
	got     HistoryQuery
	err     error
}

func (f *fakePortfolioSource) PortfolioHistory(_ context.Context, q HistoryQuery) (domain.PortfolioHistory, error) {
	f.got = q
	if f.err != nil {
		return domain.PortfolioHistory{}, f.err
	}
	return f.history, nil
}
