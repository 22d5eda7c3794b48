// Package csvstore keeps the shared quote table as an append-only CSV file.
//
// The layout matches the table the ingestion process has always written:
//
//	,Ask_price,Bid_price,Currency,Created_at
//	NVDA,121.35,121.3,USD,2024-08-20 14:30:00
//
// The first column is the symbol and carries an empty header.
package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"marketmaker-bot/internal/application"
	"marketmaker-bot/internal/domain"

	"github.com/shopspring/decimal"
)

const CreatedAtLayout = "2006-01-02 15:04:05"

var header = []string{"", "Ask_price", "Bid_price", "Currency", "Created_at"}

var (
	_ application.QuoteStore = (*Store)(nil)
	_ application.QuoteSink  = (*Store)(nil)
)

type Store struct {
	path string
	mu   sync.Mutex // serializes in-process appends
}

func New(path string) *Store { return &Store{path: path} }

func (s *Store) Path() string { return s.path }

// LatestQuote reads a full snapshot of the file and returns the last row for symbol.
// A final record without its line terminator is an append still in flight and
// reads as ErrDataUnavailable.
func (s *Store) LatestQuote(_ context.Context, symbol string) (domain.Quote, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("%w: open %s: %v", domain.ErrDataUnavailable, s.path, err)
	}
	if len(raw) == 0 {
		return domain.Quote{}, fmt.Errorf("%w: %s is empty", domain.ErrDataUnavailable, s.path)
	}
	if raw[len(raw)-1] != '\n' {
		return domain.Quote{}, fmt.Errorf("%w: %s ends in a partial row", domain.ErrDataUnavailable, s.path)
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = len(header)
	if _, err := r.Read(); err != nil {
		return domain.Quote{}, fmt.Errorf("%w: read header: %v", domain.ErrDataUnavailable, err)
	}

	var (
		last  []string
		rows  int
		found bool
	)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Quote{}, fmt.Errorf("%w: read row: %v", domain.ErrDataUnavailable, err)
		}
		rows++
		if len(rec) > 0 && rec[0] == symbol {
			last, found = rec, true
		}
	}
	if rows == 0 {
		return domain.Quote{}, fmt.Errorf("%w: %s has no rows", domain.ErrDataUnavailable, s.path)
	}
	if !found {
		return domain.Quote{}, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
	}
	return parseRow(last)
}

func parseRow(rec []string) (domain.Quote, error) {
	ask, err := decimal.NewFromString(rec[1])
	if err != nil {
		return domain.Quote{}, fmt.Errorf("csvstore: ask price %q: %w", rec[1], err)
	}
	bid, err := decimal.NewFromString(rec[2])
	if err != nil {
		return domain.Quote{}, fmt.Errorf("csvstore: bid price %q: %w", rec[2], err)
	}
	q := domain.Quote{Symbol: rec[0], AskPrice: ask, BidPrice: bid, Currency: rec[3]}
	if t, err := time.ParseInLocation(CreatedAtLayout, rec[4], time.Local); err == nil {
		q.ObservedAt = t
	}
	return q, nil
}

// AppendQuotes writes the header when the file is new or empty, then appends
// all rows with a single write.
func (s *Store) AppendQuotes(_ context.Context, quotes []domain.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("csvstore: create dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("csvstore: open: %w", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("csvstore: stat: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if st.Size() == 0 {
		_ = w.Write(header)
	}
	for _, q := range quotes {
		_ = w.Write([]string{
			q.Symbol,
			q.AskPrice.String(),
			q.BidPrice.String(),
			q.Currency,
			q.ObservedAt.Format(CreatedAtLayout),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csvstore: encode: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("csvstore: write: %w", err)
	}
	return nil
}
