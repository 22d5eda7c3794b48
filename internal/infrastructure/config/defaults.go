package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultIngestEvery     = 60 * time.Second
	DefaultQuotesPath      = "data/quotes/latest_stock_quotes.csv"
	DefaultSQLitePath      = "data/quotes.db"
	DefaultLeaseTTL        = 10 * time.Minute
	DefaultRequestTimeout  = 10 * time.Second
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
)
