package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Quote struct {
	Symbol     string
	AskPrice   decimal.Decimal
	BidPrice   decimal.Decimal
	Currency   string
	ObservedAt time.Time
}

// Spread is ask minus bid. Upstream data is trusted, so it may be negative.
func (q Quote) Spread() decimal.Decimal {
	return q.AskPrice.Sub(q.BidPrice)
}
