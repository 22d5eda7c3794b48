package bootstrap

import (
	"context"

	"marketmaker-bot/internal/application"
	"marketmaker-bot/internal/config"
	httpserver "marketmaker-bot/internal/infrastructure/http"

	"go.uber.org/zap"
)

// InitAPI builds the portfolio web view backed by the paper account.
func InitAPI(_ context.Context, log *zap.Logger, cfg config.Config) (*httpserver.Server, func(), error) {
	trading := ProvideTradingClient(log, cfg)
	svc := application.NewPortfolioService(trading, log)
	return httpserver.NewServer(svc), func() {}, nil
}
