package pg

import (
	"context"
	"errors"
	"fmt"

	"marketmaker-bot/internal/application"
	"marketmaker-bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var (
	_ application.QuoteStore = (*QuoteRepo)(nil)
	_ application.QuoteSink  = (*QuoteRepo)(nil)
)

// QuoteRepo stores the quote table in quotes_history. Insertion order is the
// bigserial id.
type QuoteRepo struct{ db *DB }

func NewQuoteRepo(db *DB) *QuoteRepo { return &QuoteRepo{db: db} }

func (r *QuoteRepo) LatestQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	const q = `
        SELECT symbol, ask_price::text, bid_price::text, currency, observed_at
        FROM quotes_history WHERE symbol=$1
        ORDER BY id DESC LIMIT 1`
	var (
		out      domain.Quote
		ask, bid string
	)
	err := r.db.Pool.QueryRow(ctx, q, symbol).Scan(&out.Symbol, &ask, &bid, &out.Currency, &out.ObservedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var hasRows bool
		if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quotes_history)`).Scan(&hasRows); err != nil {
			return domain.Quote{}, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
		}
		if !hasRows {
			return domain.Quote{}, fmt.Errorf("%w: quotes_history is empty", domain.ErrDataUnavailable)
		}
		return domain.Quote{}, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
	}
	if err != nil {
		return domain.Quote{}, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	if out.AskPrice, err = decimal.NewFromString(ask); err != nil {
		return domain.Quote{}, fmt.Errorf("pg: ask price: %w", err)
	}
	if out.BidPrice, err = decimal.NewFromString(bid); err != nil {
		return domain.Quote{}, fmt.Errorf("pg: bid price: %w", err)
	}
	return out, nil
}

// AppendQuotes inserts all rows in one transaction so ids stay contiguous per batch.
func (r *QuoteRepo) AppendQuotes(ctx context.Context, quotes []domain.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		for _, q := range quotes {
			if _, err := tx.Exec(ctx, `
                INSERT INTO quotes_history(symbol, ask_price, bid_price, currency, observed_at)
                VALUES ($1, $2::numeric, $3::numeric, $4, $5)`,
				q.Symbol, q.AskPrice.String(), q.BidPrice.String(), q.Currency, q.ObservedAt,
			); err != nil {
				return fmt.Errorf("pg: insert quote: %w", err)
			}
		}
		return nil
	})
}
