package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"marketmaker-bot/internal/application"
	"marketmaker-bot/internal/config"
	"marketmaker-bot/internal/domain"
	"marketmaker-bot/internal/infrastructure/alpaca"
	"marketmaker-bot/internal/infrastructure/csvstore"
	"marketmaker-bot/internal/infrastructure/httpx"
	"marketmaker-bot/internal/infrastructure/pg"
	"marketmaker-bot/internal/infrastructure/provider"
	redisstore "marketmaker-bot/internal/infrastructure/redis"
	"marketmaker-bot/internal/infrastructure/sqlite"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required for STORAGE=pg")

// QuoteTable bundles the reader and writer sides of one quote table backend.
type QuoteTable struct {
	Reader application.QuoteStore
	Sink   application.QuoteSink
	Ping   func(context.Context) error
}

// ProvideQuoteTable opens the backend named by cfg.Storage.
func ProvideQuoteTable(ctx context.Context, log *zap.Logger, cfg config.Config) (QuoteTable, func(), error) {
	switch strings.ToLower(cfg.Storage) {
	case "", "csv":
		s := csvstore.New(cfg.QuotesPath)
		return QuoteTable{Reader: s, Sink: s}, func() {}, nil
	case "sqlite":
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return QuoteTable{}, func() {}, err
		}
		cleanup := func() {
			log.Info("closing sqlite")
			_ = s.Close()
		}
		return QuoteTable{Reader: s, Sink: s, Ping: s.Ping}, cleanup, nil
	case "pg":
		if cfg.DatabaseURL == "" {
			return QuoteTable{}, func() {}, ErrMissingDBURL
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return QuoteTable{}, func() {}, err
		}
		if err := pg.RunMigrations(ctx, db); err != nil {
			db.Close()
			return QuoteTable{}, func() {}, err
		}
		repo := pg.NewQuoteRepo(db)
		cleanup := func() {
			log.Info("closing pg")
			db.Close()
		}
		return QuoteTable{Reader: repo, Sink: repo, Ping: db.Ping}, cleanup, nil
	default:
		return QuoteTable{}, func() {}, fmt.Errorf("unsupported STORAGE=%q", cfg.Storage)
	}
}

func httpClient(cfg config.Config, keyID, secret string) *httpx.Client {
	return &httpx.Client{
		HTTP:      &http.Client{Timeout: cfg.RequestTimeout},
		KeyID:     keyID,
		SecretKey: secret,
	}
}

// ProvideTradingClient talks to the paper account.
func ProvideTradingClient(log *zap.Logger, cfg config.Config) *alpaca.TradingClient {
	return alpaca.NewTradingClient(cfg.TradingBaseURL, httpClient(cfg, cfg.PaperKeyID, cfg.PaperSecretKey), log)
}

// ProvideQuoteSource returns the market-data client with the live key pair,
// or a fixed-price fake when MARKET_DATA=fake.
func ProvideQuoteSource(cfg config.Config) application.QuoteSource {
	if cfg.MarketData == "fake" {
		return provider.NewFake(decimal.NewFromInt(99), decimal.NewFromInt(101))
	}
	return &alpaca.MarketData{
		BaseURL: strings.TrimRight(cfg.DataBaseURL, "/"),
		HTTP:    httpClient(cfg, cfg.LiveKeyID, cfg.LiveSecretKey),
	}
}

func ProvideLease(cfg config.Config) (application.Lease, func(), error) {
	switch cfg.Lease {
	case "", "none":
		return application.NoopLease{}, func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		lease := redisstore.New(client, "marketmaker:refresh:"+cfg.Symbol, cfg.LeaseTTL)
		return lease, func() { _ = client.Close() }, nil
	default:
		return nil, func() {}, fmt.Errorf("unsupported LEASE=%q", cfg.Lease)
	}
}

func ProvideRefreshLoop(log *zap.Logger, cfg config.Config, quotes application.QuoteStore, orders application.OrderClient, lease application.Lease) (*application.RefreshLoop, error) {
	ot, err := domain.ParseOrderType(cfg.OrderType)
	if err != nil {
		return nil, err
	}
	tif, err := domain.ParseTimeInForce(cfg.TimeInForce)
	if err != nil {
		return nil, err
	}
	return application.NewRefreshLoop(quotes, orders, application.RefreshConfig{
		Symbol:      cfg.Symbol,
		Quantity:    cfg.Quantity,
		OrderType:   ot,
		TimeInForce: tif,
		Interval:    cfg.RefreshInterval,
	},
		application.WithLogger(log.With(zap.String("task", "refresh"))),
		application.WithLease(lease, ""),
	), nil
}

func ProvideIngestor(log *zap.Logger, cfg config.Config, source application.QuoteSource, sink application.QuoteSink) *application.Ingestor {
	return &application.Ingestor{
		Source:   source,
		Sink:     sink,
		Symbol:   cfg.Symbol,
		Currency: cfg.Currency,
		Log:      log.With(zap.String("task", "ingest")),
	}
}
