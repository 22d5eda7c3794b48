package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"marketmaker-bot/internal/domain"
	"marketmaker-bot/internal/infrastructure/logx"

	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"
)

// PortfolioReader yields the cleaned equity series shown by the chart.
type PortfolioReader interface {
	Points(ctx context.Context, period, timeframe string) ([]domain.PortfolioPoint, error)
}

type Server struct {
	portfolio PortfolioReader
	ping      func(context.Context) error
}

func NewServer(portfolio PortfolioReader) *Server { return &Server{portfolio: portfolio} }

// WithPing sets the readiness probe used by /readyz.
func (s *Server) WithPing(ping func(context.Context) error) *Server {
	s.ping = ping
	return s
}

type historyParams struct {
	Period    string
	Timeframe string
}

func bindHistoryParams(r *http.Request) (historyParams, error) {
	var p historyParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "period", q, &p.Period); err != nil {
		return p, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "timeframe", q, &p.Timeframe); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Server) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	points, ok := s.points(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) GetPortfolioChart(w http.ResponseWriter, r *http.Request) {
	points, ok := s.points(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(RenderChart(points))
}

func (s *Server) points(w http.ResponseWriter, r *http.Request) ([]domain.PortfolioPoint, bool) {
	params, err := bindHistoryParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return nil, false
	}
	points, err := s.portfolio.Points(r.Context(), params.Period, params.Timeframe)
	if errors.Is(err, domain.ErrUnsupportedTimeframe) {
		writeError(w, http.StatusBadRequest, "unsupported timeframe")
		return nil, false
	}
	if err != nil {
		logx.L().Warn("portfolio.fetch_failed", zap.Error(err), zap.String("request_id", RequestID(r.Context())))
		writeError(w, http.StatusBadGateway, "portfolio history unavailable")
		return nil, false
	}
	return points, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <title>Portfolio</title>
</head>
<body>
  <h1>Portfolio Value Over 1 Day</h1>
  <img src="/portfolio/chart.svg" alt="Portfolio Value Over 1 Day" />
</body>
</html>`
