package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketmaker-bot/internal/domain"
	"marketmaker-bot/internal/retry"

	"github.com/stretchr/testify/require"
)

func TestIngestOnce_StampsCurrencyAndTime(t *testing.T) {
	t.Parallel()
	src := &fakeQuoteSource{quotes: []domain.Quote{{Symbol: "NVDA", AskPrice: dec("120.5"), BidPrice: dec("120.1")}}}
	sink := &fakeQuoteSink{}
	at := time.Date(2024, 8, 20, 14, 30, 15, 500, time.UTC)
	in := &Ingestor{Source: src, Sink: sink, Symbol: "NVDA", Currency: "GBP", Now: func() time.Time { return at }}

	require.NoError(t, in.IngestOnce(context.Background()))
	require.Len(t, sink.rows, 1)
	require.Equal(t, "GBP", sink.rows[0].Currency)
	require.Equal(t, "GBP", src.gotCur)
	require.Equal(t, at.Truncate(time.Second), sink.rows[0].ObservedAt)
	require.True(t, dec("120.5").Equal(sink.rows[0].AskPrice))
}

func TestIngestOnce_RetriesNetworkErrors(t *testing.T) {
	t.Parallel()
	src := &fakeQuoteSource{
		quotes: []domain.Quote{{Symbol: "NVDA", AskPrice: dec("1"), BidPrice: dec("1")}},
		errs:   []error{&domain.RemoteError{StatusCode: 429, Body: "slow down"}},
	}
	sink := &fakeQuoteSink{}
	p := retry.HTTP("marketdata.latest_quotes", nil)
	p.Delay = time.Millisecond
	in := &Ingestor{Source: src, Sink: sink, Symbol: "NVDA", Currency: "USD", Policy: p}

	require.NoError(t, in.IngestOnce(context.Background()))
	require.Equal(t, 2, src.calls)
	require.Len(t, sink.rows, 1)
}

func TestIngestOnce_EmptyResponseIsAnError(t *testing.T) {
	t.Parallel()
	in := &Ingestor{Source: &fakeQuoteSource{}, Sink: &fakeQuoteSink{}, Symbol: "ZZZZ", Currency: "USD"}
	err := in.IngestOnce(context.Background())
	require.ErrorIs(t, err, domain.ErrSymbolNotFound)
}

func TestIngestOnce_SinkErrorPropagates(t *testing.T) {
	t.Parallel()
	diskFull := errors.New("no space left on device")
	in := &Ingestor{
		Source:   &fakeQuoteSource{quotes: []domain.Quote{{Symbol: "NVDA"}}},
		Sink:     &fakeQuoteSink{err: diskFull},
		Symbol:   "NVDA",
		Currency: "USD",
	}
	require.ErrorIs(t, in.IngestOnce(context.Background()), diskFull)
}
