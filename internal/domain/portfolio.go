package domain

import "github.com/shopspring/decimal"

// PortfolioHistory is the raw account history series as returned by the brokerage.
type PortfolioHistory struct {
	Timestamps    []int64
	Equity        []decimal.Decimal
	ProfitLoss    []decimal.Decimal
	ProfitLossPct []decimal.Decimal
	BaseValue     decimal.Decimal
	Timeframe     string
}

// PortfolioPoint is one cleaned chart sample.
type PortfolioPoint struct {
	Label  string          `json:"timestamp"`
	Equity decimal.Decimal `json:"equity"`
}
