package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"marketmaker-bot/internal/domain"
	defaults "marketmaker-bot/internal/infrastructure/config"
	"marketmaker-bot/internal/retry"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Common
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	// API
	Port           string        `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// Quote table
	Storage     string `yaml:"storage"`
	QuotesPath  string `yaml:"quotes_path"`
	SQLitePath  string `yaml:"sqlite_path"`
	DatabaseURL string `yaml:"database_url"`
	// Brokerage
	TradingBaseURL string `yaml:"trading_base_url"`
	DataBaseURL    string `yaml:"data_base_url"`
	MarketData     string `yaml:"market_data"`
	LiveKeyID      string `yaml:"live_key_id"`
	LiveSecretKey  string `yaml:"live_secret_key"`
	PaperKeyID     string `yaml:"paper_key_id"`
	PaperSecretKey string `yaml:"paper_secret_key"`
	// Strategy
	Symbol          string        `yaml:"symbol"`
	Currency        string        `yaml:"currency"`
	OrderType       string        `yaml:"order_type"`
	TimeInForce     string        `yaml:"time_in_force"`
	Quantity        int64         `yaml:"quantity"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	IngestEvery     time.Duration `yaml:"ingest_every"`
	// Redis (single-runner lease)
	Lease         string        `yaml:"lease"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	LeaseTTL      time.Duration `yaml:"lease_ttl"`
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func baseConfig() Config {
	return Config{
		Env:             "local",
		LogLevel:        "info",
		Port:            defaults.DefaultHTTPPort,
		RequestTimeout:  defaults.DefaultRequestTimeout,
		Storage:         "csv",
		QuotesPath:      defaults.DefaultQuotesPath,
		SQLitePath:      defaults.DefaultSQLitePath,
		TradingBaseURL:  "https://paper-api.alpaca.markets",
		DataBaseURL:     "https://data.alpaca.markets",
		MarketData:      "alpaca",
		Currency:        "USD",
		OrderType:       "market",
		TimeInForce:     "day",
		RefreshInterval: 60 * time.Second,
		IngestEvery:     defaults.DefaultIngestEvery,
		Lease:           "none",
		RedisAddr:       "localhost:6379",
		LeaseTTL:        defaults.DefaultLeaseTTL,
	}
}

// Load applies defaults, then the YAML file named by CONFIG_FILE, then
// environment variables. Later sources win.
func Load() (Config, error) {
	c := baseConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return c, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	c.Env = getEnv("ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Port = getEnv("PORT", c.Port)
	c.RequestTimeout = time.Duration(atoiDef(os.Getenv("REQUEST_TIMEOUT_MS"), int(c.RequestTimeout/time.Millisecond))) * time.Millisecond
	c.Storage = getEnv("STORAGE", c.Storage)
	c.QuotesPath = getEnv("QUOTES_PATH", c.QuotesPath)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.TradingBaseURL = getEnv("TRADING_API_BASE", c.TradingBaseURL)
	c.DataBaseURL = getEnv("DATA_API_BASE", c.DataBaseURL)
	c.MarketData = getEnv("MARKET_DATA", c.MarketData)
	c.LiveKeyID = getEnv("LIVE_API_KEY", c.LiveKeyID)
	c.LiveSecretKey = getEnv("LIVE_SECRET_KEY", c.LiveSecretKey)
	c.PaperKeyID = getEnv("PAPER_API_KEY", c.PaperKeyID)
	c.PaperSecretKey = getEnv("PAPER_SECRET_KEY", c.PaperSecretKey)
	c.Symbol = getEnv("SYMBOL", c.Symbol)
	c.Currency = getEnv("CURRENCY", c.Currency)
	c.OrderType = getEnv("ORDER_TYPE", c.OrderType)
	c.TimeInForce = getEnv("TIME_IN_FORCE", c.TimeInForce)
	c.Quantity = int64(atoiDef(os.Getenv("QUANTITY"), int(c.Quantity)))
	c.RefreshInterval = durationEnv("REFRESH_INTERVAL", c.RefreshInterval)
	c.IngestEvery = durationEnv("INGEST_EVERY", c.IngestEvery)
	c.Lease = getEnv("LEASE", c.Lease)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = atoiDef(os.Getenv("REDIS_DB"), c.RedisDB)
	c.LeaseTTL = durationEnv("LEASE_TTL", c.LeaseTTL)
	return c, nil
}

const (
	refresherUsage = "symbol api_key api_secret order_type time_in_force quantity refresh_interval_seconds"
	ingestUsage    = "symbol currency api_key api_secret"
	botUsage       = "symbol currency live_key live_secret paper_key paper_secret order_type time_in_force quantity refresh_interval_seconds"
)

// ApplyRefresherArgs sets the order-refresh positional arguments.
func (c *Config) ApplyRefresherArgs(args []string) error {
	if len(args) != 7 {
		return fmt.Errorf("expected %d arguments (%s), got %d", 7, refresherUsage, len(args))
	}
	c.Symbol = args[0]
	c.PaperKeyID, c.PaperSecretKey = args[1], args[2]
	c.OrderType, c.TimeInForce = args[3], args[4]
	return c.applySizing(args[5], args[6])
}

// ApplyIngestArgs sets the quote-ingestion positional arguments.
func (c *Config) ApplyIngestArgs(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("expected %d arguments (%s), got %d", 4, ingestUsage, len(args))
	}
	c.Symbol, c.Currency = args[0], args[1]
	c.LiveKeyID, c.LiveSecretKey = args[2], args[3]
	return nil
}

// ApplyBotArgs sets the combined process arguments.
func (c *Config) ApplyBotArgs(args []string) error {
	if len(args) != 10 {
		return fmt.Errorf("expected %d arguments (%s), got %d", 10, botUsage, len(args))
	}
	c.Symbol, c.Currency = args[0], args[1]
	c.LiveKeyID, c.LiveSecretKey = args[2], args[3]
	c.PaperKeyID, c.PaperSecretKey = args[4], args[5]
	c.OrderType, c.TimeInForce = args[6], args[7]
	return c.applySizing(args[8], args[9])
}

func (c *Config) applySizing(qty, intervalSeconds string) error {
	q, err := strconv.ParseInt(qty, 10, 64)
	if err != nil {
		return fmt.Errorf("quantity %q: %w", qty, err)
	}
	secs, err := strconv.Atoi(intervalSeconds)
	if err != nil {
		return fmt.Errorf("refresh_interval_seconds %q: %w", intervalSeconds, err)
	}
	c.Quantity = q
	c.RefreshInterval = time.Duration(secs) * time.Second
	return nil
}

// ValidateRefresher checks what the order-refresh task needs at startup.
func (c Config) ValidateRefresher() error {
	var errs []error
	if c.Symbol == "" {
		errs = append(errs, errors.New("symbol is required"))
	}
	if c.PaperKeyID == "" || c.PaperSecretKey == "" {
		errs = append(errs, errors.New("paper trading credentials are required"))
	}
	if _, err := domain.ParseOrderType(c.OrderType); err != nil {
		errs = append(errs, err)
	}
	if _, err := domain.ParseTimeInForce(c.TimeInForce); err != nil {
		errs = append(errs, err)
	}
	if c.Quantity <= 0 {
		errs = append(errs, fmt.Errorf("quantity must be positive, got %d", c.Quantity))
	}
	if c.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("refresh interval must be positive, got %s", c.RefreshInterval))
	}
	if c.Lease == "redis" {
		if need := c.RefreshInterval + c.WorstCaseCycle(); c.LeaseTTL <= need {
			errs = append(errs, fmt.Errorf("lease ttl %s must exceed refresh interval plus worst-case cycle (%s)", c.LeaseTTL, need))
		}
	}
	errs = append(errs, c.validateStorage())
	return errors.Join(errs...)
}

// WorstCaseCycle bounds one refresh cycle: every attempt of every step
// runs to the request timeout and every retry delay is waited out.
func (c Config) WorstCaseCycle() time.Duration {
	steps := []retry.Policy{
		retry.QuoteTable("quote", nil),
		retry.HTTP("list", nil),
		retry.HTTP("cancel", nil),
		retry.OrderPlacement("bid", nil),
		retry.OrderPlacement("ask", nil),
	}
	var total time.Duration
	for _, p := range steps {
		total += time.Duration(p.MaxAttempts)*c.RequestTimeout + time.Duration(p.MaxAttempts-1)*p.Delay
	}
	return total
}

// ValidateIngest checks what the quote-ingestion task needs at startup.
func (c Config) ValidateIngest() error {
	var errs []error
	if c.Symbol == "" {
		errs = append(errs, errors.New("symbol is required"))
	}
	if c.Currency == "" {
		errs = append(errs, errors.New("currency is required"))
	}
	switch c.MarketData {
	case "alpaca":
		if c.LiveKeyID == "" || c.LiveSecretKey == "" {
			errs = append(errs, errors.New("market data credentials are required"))
		}
	case "fake":
	default:
		errs = append(errs, fmt.Errorf("unknown MARKET_DATA %q (alpaca, fake)", c.MarketData))
	}
	if c.IngestEvery <= 0 {
		errs = append(errs, fmt.Errorf("ingest cadence must be positive, got %s", c.IngestEvery))
	}
	errs = append(errs, c.validateStorage())
	return errors.Join(errs...)
}

func (c Config) ValidateBot() error {
	return errors.Join(c.ValidateRefresher(), c.ValidateIngest())
}

func (c Config) ValidateAPI() error {
	if c.PaperKeyID == "" || c.PaperSecretKey == "" {
		return errors.New("paper trading credentials are required (PAPER_API_KEY, PAPER_SECRET_KEY)")
	}
	return nil
}

func (c Config) validateStorage() error {
	switch strings.ToLower(c.Storage) {
	case "csv", "sqlite":
		return nil
	case "pg":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for STORAGE=pg")
		}
		return nil
	default:
		return fmt.Errorf("unknown STORAGE %q (csv, sqlite, pg)", c.Storage)
	}
}
