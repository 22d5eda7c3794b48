package application

import (
	"context"
	"fmt"
	"time"

	"marketmaker-bot/internal/domain"
	"marketmaker-bot/internal/retry"

	"go.uber.org/zap"
)

// HistoryQuery selects the portfolio history window.
type HistoryQuery struct {
	Period    string
	Timeframe string
	Start     time.Time
}

func DefaultHistoryQuery(now time.Time) HistoryQuery {
	y, m, d := now.UTC().Date()
	return HistoryQuery{
		Period:    "1D",
		Timeframe: "1H",
		Start:     time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}
}

type PortfolioService struct {
	source PortfolioSource
	policy retry.Policy
	now    func() time.Time
}

func NewPortfolioService(source PortfolioSource, log *zap.Logger) *PortfolioService {
	return &PortfolioService{
		source: source,
		policy: retry.HTTP("portfolio.history", log),
		now:    time.Now,
	}
}

// Points returns the cleaned equity series for the chart.
func (s *PortfolioService) Points(ctx context.Context, period, timeframe string) ([]domain.PortfolioPoint, error) {
	q := DefaultHistoryQuery(s.now())
	if period != "" {
		q.Period = period
	}
	if timeframe != "" {
		q.Timeframe = timeframe
	}
	step, err := TimeframeStep(q.Timeframe)
	if err != nil {
		return nil, err
	}
	h, err := retry.Do(ctx, s.policy, func(ctx context.Context) (domain.PortfolioHistory, error) {
		return s.source.PortfolioHistory(ctx, q)
	})
	if err != nil {
		return nil, fmt.Errorf("portfolio history: %w", err)
	}
	return CleanPortfolio(h, step), nil
}

var timeframeSteps = map[string]time.Duration{
	"1Min":  time.Minute,
	"5Min":  5 * time.Minute,
	"15Min": 15 * time.Minute,
	"1H":    time.Hour,
	"1D":    24 * time.Hour,
}

// TimeframeStep maps a portfolio history timeframe to the spacing of its points.
func TimeframeStep(timeframe string) (time.Duration, error) {
	step, ok := timeframeSteps[timeframe]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedTimeframe, timeframe)
	}
	return step, nil
}

// CleanPortfolio keeps only the equity series and relabels it. Intraday steps
// are labelled as clock times from 00:00:00; daily steps use the date of
// each raw timestamp.
func CleanPortfolio(h domain.PortfolioHistory, step time.Duration) []domain.PortfolioPoint {
	n := len(h.Timestamps)
	if len(h.Equity) < n {
		n = len(h.Equity)
	}
	var labels []string
	if step >= 24*time.Hour {
		labels = make([]string, n)
		for i := range labels {
			labels[i] = time.Unix(h.Timestamps[i], 0).UTC().Format("2006-01-02")
		}
	} else {
		labels = IntradayLabels(n, step)
	}
	out := make([]domain.PortfolioPoint, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.PortfolioPoint{Label: labels[i], Equity: h.Equity[i]})
	}
	return out
}

// IntradayLabels returns n "15:04:05" labels step apart from 00:00:00.
func IntradayLabels(n int, step time.Duration) []string {
	start := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]string, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * step).Format("15:04:05")
	}
	return out
}
