package csvstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"marketmaker-bot/internal/domain"
	"marketmaker-bot/internal/infrastructure/csvstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "latest_stock_quotes.csv")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLatestQuote_LastRowWins(t *testing.T) {
	p := writeFile(t, ",Ask_price,Bid_price,Currency,Created_at\n"+
		"AAPL,1,2,USD,2024-08-20 10:00:00\n"+
		"MSFT,5,6,USD,2024-08-20 10:00:00\n"+
		"AAPL,3,4,USD,2024-08-20 10:01:00\n")
	q, err := csvstore.New(p).LatestQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "3", q.AskPrice.String())
	require.Equal(t, "4", q.BidPrice.String())
	require.Equal(t, "USD", q.Currency)
	require.Equal(t, 1, q.ObservedAt.Minute())
}

func TestLatestQuote_EmptyFileIsDataUnavailable(t *testing.T) {
	_, err := csvstore.New(writeFile(t, "")).LatestQuote(context.Background(), "AAPL")
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestLatestQuote_HeaderOnlyIsDataUnavailable(t *testing.T) {
	_, err := csvstore.New(writeFile(t, ",Ask_price,Bid_price,Currency,Created_at\n")).LatestQuote(context.Background(), "AAPL")
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestLatestQuote_MissingFileIsDataUnavailable(t *testing.T) {
	_, err := csvstore.New(filepath.Join(t.TempDir(), "nope.csv")).LatestQuote(context.Background(), "AAPL")
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestLatestQuote_UnknownSymbol(t *testing.T) {
	p := writeFile(t, ",Ask_price,Bid_price,Currency,Created_at\nMSFT,5,6,USD,2024-08-20 10:00:00\n")
	_, err := csvstore.New(p).LatestQuote(context.Background(), "AAPL")
	require.ErrorIs(t, err, domain.ErrSymbolNotFound)
	require.NotErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestLatestQuote_PartialTrailingRowIsDataUnavailable(t *testing.T) {
	full := ",Ask_price,Bid_price,Currency,Created_at\n" +
		"NVDA,121.35,121.3,USD,2024-08-20 14:30:00\n"
	p := writeFile(t, full+"NVDA,122.10,12")
	store := csvstore.New(p)

	_, err := store.LatestQuote(context.Background(), "NVDA")
	require.ErrorIs(t, err, domain.ErrDataUnavailable)

	require.NoError(t, os.WriteFile(p, []byte(full+"NVDA,122.10,122.05,USD,2024-08-20 14:31:00\n"), 0o644))
	q, err := store.LatestQuote(context.Background(), "NVDA")
	require.NoError(t, err)
	require.Equal(t, "122.1", q.AskPrice.String())
	require.Equal(t, "122.05", q.BidPrice.String())
}

func TestLatestQuote_ShortRowIsDataUnavailable(t *testing.T) {
	p := writeFile(t, ",Ask_price,Bid_price,Currency,Created_at\n"+
		"NVDA,121.35,121.3,USD,2024-08-20 14:30:00\n"+
		"NVDA,122.10\n")
	_, err := csvstore.New(p).LatestQuote(context.Background(), "NVDA")
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestAppendQuotes_WritesHeaderOnceAndRoundTrips(t *testing.T) {
	p := filepath.Join(t.TempDir(), "quotes", "latest_stock_quotes.csv")
	s := csvstore.New(p)
	ctx := context.Background()
	at := time.Date(2024, 8, 20, 14, 30, 0, 0, time.Local)

	require.NoError(t, s.AppendQuotes(ctx, []domain.Quote{
		{Symbol: "NVDA", AskPrice: decimal.RequireFromString("121.35"), BidPrice: decimal.RequireFromString("121.3"), Currency: "GBP", ObservedAt: at},
	}))
	require.NoError(t, s.AppendQuotes(ctx, []domain.Quote{
		{Symbol: "NVDA", AskPrice: decimal.RequireFromString("122"), BidPrice: decimal.RequireFromString("121.9"), Currency: "GBP", ObservedAt: at.Add(time.Minute)},
	}))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, ",Ask_price,Bid_price,Currency,Created_at\n"+
		"NVDA,121.35,121.3,GBP,2024-08-20 14:30:00\n"+
		"NVDA,122,121.9,GBP,2024-08-20 14:31:00\n", string(raw))

	q, err := s.LatestQuote(ctx, "NVDA")
	require.NoError(t, err)
	require.Equal(t, "122", q.AskPrice.String())
	require.True(t, at.Add(time.Minute).Equal(q.ObservedAt))
}
