package application

import (
	"context"
	"fmt"
	"time"

	"marketmaker-bot/internal/domain"
	"marketmaker-bot/internal/retry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FixedAskQuantity is the sell-side size placed every cycle. It does not follow
// the configured bid quantity.
const FixedAskQuantity int64 = 5

type RefreshConfig struct {
	Symbol      string
	Quantity    int64
	OrderType   domain.OrderType
	TimeInForce domain.TimeInForce
	Interval    time.Duration
}

// CycleReport summarizes one completed refresh cycle.
type CycleReport struct {
	ID         string
	Quote      domain.Quote
	Spread     decimal.Decimal
	Cancelled  int
	BidOrderID string
	AskOrderID string
	Skipped    bool
}

// RefreshLoop re-quotes the book on a fixed interval: fetch quote, cancel open
// orders, place a bid and an ask, sleep.
type RefreshLoop struct {
	quotes QuoteStore
	orders OrderClient
	cfg    RefreshConfig

	quotePolicy retry.Policy
	lease       Lease
	owner       string
	log         *zap.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

type RefreshOption func(*RefreshLoop)

func WithQuotePolicy(p retry.Policy) RefreshOption {
	return func(l *RefreshLoop) { l.quotePolicy = p }
}

func WithLease(lease Lease, owner string) RefreshOption {
	return func(l *RefreshLoop) { l.lease, l.owner = lease, owner }
}

func WithLogger(log *zap.Logger) RefreshOption {
	return func(l *RefreshLoop) { l.log = log }
}

func WithSleep(fn func(ctx context.Context, d time.Duration) error) RefreshOption {
	return func(l *RefreshLoop) { l.sleep = fn }
}

func NewRefreshLoop(quotes QuoteStore, orders OrderClient, cfg RefreshConfig, opts ...RefreshOption) *RefreshLoop {
	l := &RefreshLoop{quotes: quotes, orders: orders, cfg: cfg}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	if l.quotePolicy.MaxAttempts == 0 {
		l.quotePolicy = retry.QuoteTable("quote_store.latest", l.log)
	}
	if l.lease == nil {
		l.lease = NoopLease{}
	}
	if l.owner == "" {
		l.owner = uuid.NewString()
	}
	if l.sleep == nil {
		l.sleep = sleepCtx
	}
	return l
}

// Owner is the lease holder id used by this loop.
func (l *RefreshLoop) Owner() string { return l.owner }

// Run executes cycles back to back until one fails or ctx is cancelled.
// Cycle errors are returned as-is; restarting is the supervisor's job.
func (l *RefreshLoop) Run(ctx context.Context) error {
	for {
		if _, err := l.RunCycle(ctx); err != nil {
			return err
		}
		if err := l.sleep(ctx, l.cfg.Interval); err != nil {
			return err
		}
	}
}

// RunCycle performs FetchQuote, ReconcileOrders, PlaceBid and PlaceAsk once.
func (l *RefreshLoop) RunCycle(ctx context.Context) (CycleReport, error) {
	rep := CycleReport{ID: uuid.NewString()}
	log := l.log.With(zap.String("cycle_id", rep.ID), zap.String("symbol", l.cfg.Symbol))

	held, err := l.lease.TryAcquire(ctx, l.owner)
	if err != nil {
		return rep, fmt.Errorf("acquire lease: %w", err)
	}
	if !held {
		log.Info("refresh.lease_held_elsewhere")
		rep.Skipped = true
		return rep, nil
	}

	quote, err := retry.Do(ctx, l.quotePolicy, func(ctx context.Context) (domain.Quote, error) {
		return l.quotes.LatestQuote(ctx, l.cfg.Symbol)
	})
	if err != nil {
		return rep, fmt.Errorf("fetch quote: %w", err)
	}
	rep.Quote = quote
	rep.Spread = quote.Spread()
	log.Info("refresh.quote",
		zap.Stringer("ask", quote.AskPrice),
		zap.Stringer("bid", quote.BidPrice),
		zap.Stringer("spread", rep.Spread),
	)

	open, err := l.orders.ListOpenOrders(ctx)
	if err != nil {
		return rep, fmt.Errorf("list open orders: %w", err)
	}
	if len(open) > 0 {
		if err := l.orders.CancelAllOpenOrders(ctx); err != nil {
			return rep, fmt.Errorf("cancel open orders: %w", err)
		}
		rep.Cancelled = len(open)
		log.Info("refresh.orders_cancelled", zap.Int("count", len(open)))
	}

	bid, err := l.orders.PlaceOrder(ctx, l.orderRequest(domain.SideBuy, l.cfg.Quantity))
	if err != nil {
		return rep, fmt.Errorf("place bid: %w", err)
	}
	rep.BidOrderID = bid.ID

	ask, err := l.orders.PlaceOrder(ctx, l.orderRequest(domain.SideSell, FixedAskQuantity))
	if err != nil {
		return rep, fmt.Errorf("place ask: %w", err)
	}
	rep.AskOrderID = ask.ID

	log.Info("refresh.cycle_done",
		zap.String("bid_order_id", rep.BidOrderID),
		zap.String("ask_order_id", rep.AskOrderID),
		zap.Int("cancelled", rep.Cancelled),
	)
	return rep, nil
}

func (l *RefreshLoop) orderRequest(side domain.Side, qty int64) domain.OrderRequest {
	return domain.OrderRequest{
		Side:        side,
		Type:        l.cfg.OrderType,
		TimeInForce: l.cfg.TimeInForce,
		Symbol:      l.cfg.Symbol,
		Quantity:    qty,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
