// Package sqlite keeps the quote table in a single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"marketmaker-bot/internal/application"
	"marketmaker-bot/internal/domain"
	infraconfig "marketmaker-bot/internal/infrastructure/config"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var (
	_ application.QuoteStore = (*Store)(nil)
	_ application.QuoteSink  = (*Store)(nil)
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		path = infraconfig.DefaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// WAL lets the refresher read while the ingestor appends from another process.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=3000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quotes_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			ask_price TEXT NOT NULL,
			bid_price TEXT NOT NULL,
			currency TEXT NOT NULL DEFAULT '',
			observed_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_history_symbol ON quotes_history(symbol, id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

func (s *Store) LatestQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	var (
		out      domain.Quote
		ask, bid string
		ts       int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, ask_price, bid_price, currency, observed_at
		FROM quotes_history WHERE symbol = ?
		ORDER BY id DESC LIMIT 1`, symbol).Scan(&out.Symbol, &ask, &bid, &out.Currency, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM quotes_history`).Scan(&n); err != nil {
			return domain.Quote{}, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
		}
		if n == 0 {
			return domain.Quote{}, fmt.Errorf("%w: quotes_history is empty", domain.ErrDataUnavailable)
		}
		return domain.Quote{}, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
	}
	if err != nil {
		return domain.Quote{}, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	if out.AskPrice, err = decimal.NewFromString(ask); err != nil {
		return domain.Quote{}, fmt.Errorf("sqlite: ask price: %w", err)
	}
	if out.BidPrice, err = decimal.NewFromString(bid); err != nil {
		return domain.Quote{}, fmt.Errorf("sqlite: bid price: %w", err)
	}
	out.ObservedAt = time.Unix(ts, 0).UTC()
	return out, nil
}

func (s *Store) AppendQuotes(ctx context.Context, quotes []domain.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, q := range quotes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO quotes_history(symbol, ask_price, bid_price, currency, observed_at)
			VALUES (?, ?, ?, ?, ?)`,
			q.Symbol, q.AskPrice.String(), q.BidPrice.String(), q.Currency, q.ObservedAt.Unix(),
		); err != nil {
			return fmt.Errorf("sqlite: insert quote: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}
