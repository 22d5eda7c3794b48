package application

import (
	"context"
	"fmt"
	"time"

	"marketmaker-bot/internal/domain"
	"marketmaker-bot/internal/retry"

	"go.uber.org/zap"
)

// Ingestor pulls the latest quote for one symbol and appends it to the quote table.
type Ingestor struct {
	Source   QuoteSource
	Sink     QuoteSink
	Symbol   string
	Currency string
	Policy   retry.Policy
	Log      *zap.Logger
	Now      func() time.Time
}

// IngestOnce fetches and appends one batch. Quotes are stamped with the local
// observation time and the configured currency.
func (in *Ingestor) IngestOnce(ctx context.Context) error {
	log := in.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := in.Now
	if now == nil {
		now = time.Now
	}
	p := in.Policy
	if p.MaxAttempts == 0 {
		p = retry.HTTP("marketdata.latest_quotes", log)
	}
	log = log.With(zap.String("symbol", in.Symbol))

	log.Info("ingest.fetch_start")
	quotes, err := retry.Do(ctx, p, func(ctx context.Context) ([]domain.Quote, error) {
		return in.Source.LatestQuotes(ctx, []string{in.Symbol}, in.Currency)
	})
	if err != nil {
		return fmt.Errorf("fetch latest quotes: %w", err)
	}
	if len(quotes) == 0 {
		return fmt.Errorf("fetch latest quotes: %w", domain.ErrSymbolNotFound)
	}

	observedAt := now().Truncate(time.Second)
	for i := range quotes {
		quotes[i].Currency = in.Currency
		quotes[i].ObservedAt = observedAt
	}
	if err := in.Sink.AppendQuotes(ctx, quotes); err != nil {
		return fmt.Errorf("append quotes: %w", err)
	}
	log.Info("ingest.fetch_done", zap.Int("rows", len(quotes)))
	return nil
}
