package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "csv", c.Storage)
	require.Equal(t, "https://paper-api.alpaca.markets", c.TradingBaseURL)
	require.Equal(t, "https://data.alpaca.markets", c.DataBaseURL)
	require.Equal(t, 60*time.Second, c.IngestEvery)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage: sqlite
symbol: AAPL
refresh_interval: 15s
lease: redis
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SYMBOL", "MSFT")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite", c.Storage)
	require.Equal(t, "MSFT", c.Symbol)
	require.Equal(t, 15*time.Second, c.RefreshInterval)
	require.Equal(t, "redis", c.Lease)
}

func TestLoad_BadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestApplyRefresherArgs(t *testing.T) {
	c := baseConfig()
	require.NoError(t, c.ApplyRefresherArgs([]string{"AAPL", "key", "secret", "market", "gtc", "10", "30"}))
	require.Equal(t, "AAPL", c.Symbol)
	require.Equal(t, "key", c.PaperKeyID)
	require.Equal(t, "secret", c.PaperSecretKey)
	require.Equal(t, int64(10), c.Quantity)
	require.Equal(t, 30*time.Second, c.RefreshInterval)
	require.NoError(t, c.ValidateRefresher())
}

func TestApplyRefresherArgs_WrongCount(t *testing.T) {
	c := baseConfig()
	err := c.ApplyRefresherArgs([]string{"AAPL"})
	require.ErrorContains(t, err, "expected 7 arguments")
}

func TestApplyRefresherArgs_BadQuantity(t *testing.T) {
	c := baseConfig()
	err := c.ApplyRefresherArgs([]string{"AAPL", "k", "s", "market", "day", "ten", "30"})
	require.ErrorContains(t, err, "quantity")
}

func TestApplyIngestArgs(t *testing.T) {
	c := baseConfig()
	require.NoError(t, c.ApplyIngestArgs([]string{"AAPL", "USD", "lk", "ls"}))
	require.Equal(t, "lk", c.LiveKeyID)
	require.NoError(t, c.ValidateIngest())
}

func TestApplyBotArgs(t *testing.T) {
	c := baseConfig()
	require.NoError(t, c.ApplyBotArgs([]string{"AAPL", "USD", "lk", "ls", "pk", "ps", "limit", "ioc", "3", "5"}))
	require.Equal(t, "lk", c.LiveKeyID)
	require.Equal(t, "pk", c.PaperKeyID)
	require.Equal(t, "limit", c.OrderType)
	require.Equal(t, "ioc", c.TimeInForce)
	require.Equal(t, int64(3), c.Quantity)
	require.Equal(t, 5*time.Second, c.RefreshInterval)
	require.NoError(t, c.ValidateBot())
}

func TestValidateRefresher_Rejects(t *testing.T) {
	c := baseConfig()
	require.NoError(t, c.ApplyRefresherArgs([]string{"AAPL", "", "", "stop", "forever", "0", "0"}))
	err := c.ValidateRefresher()
	require.ErrorContains(t, err, "credentials")
	require.ErrorContains(t, err, "quantity must be positive")
	require.ErrorContains(t, err, "refresh interval must be positive")
}

func TestValidateStorage(t *testing.T) {
	c := baseConfig()
	c.Storage = "pg"
	require.ErrorContains(t, c.validateStorage(), "DATABASE_URL")
	c.Storage = "mongo"
	require.ErrorContains(t, c.validateStorage(), "unknown STORAGE")
}

func TestValidateAPI(t *testing.T) {
	c := baseConfig()
	require.Error(t, c.ValidateAPI())
	c.PaperKeyID, c.PaperSecretKey = "k", "s"
	require.NoError(t, c.ValidateAPI())
}

func TestValidateIngest_FakeMarketDataNeedsNoKeys(t *testing.T) {
	c := baseConfig()
	c.Symbol = "AAPL"
	c.MarketData = "fake"
	require.NoError(t, c.ValidateIngest())
	c.MarketData = "iex"
	require.ErrorContains(t, c.ValidateIngest(), "unknown MARKET_DATA")
}

func TestWorstCaseCycle(t *testing.T) {
	c := baseConfig()
	c.RequestTimeout = 10 * time.Second
	// 26 attempts at 10s plus 2*5s + 2*1s + 2*1s + 2*9s of retry delays
	require.Equal(t, 292*time.Second, c.WorstCaseCycle())
}

func TestValidateRefresher_LeaseTTLCoversCycle(t *testing.T) {
	c := baseConfig()
	require.NoError(t, c.ApplyRefresherArgs([]string{"AAPL", "key", "secret", "market", "gtc", "10", "60"}))
	c.RequestTimeout = 10 * time.Second
	c.Lease = "redis"

	c.LeaseTTL = 2 * time.Minute
	err := c.ValidateRefresher()
	require.Error(t, err)
	require.Contains(t, err.Error(), "lease ttl")

	c.LeaseTTL = 6 * time.Minute
	require.NoError(t, c.ValidateRefresher())

	c.Lease = "none"
	c.LeaseTTL = time.Second
	require.NoError(t, c.ValidateRefresher())
}
