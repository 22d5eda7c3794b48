package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"marketmaker-bot/internal/bootstrap"
	"marketmaker-bot/internal/config"
	"marketmaker-bot/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	log := logx.L()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	if err := cfg.ApplyBotArgs(os.Args[1:]); err != nil {
		log.Fatal("parse arguments", zap.Error(err))
	}
	if err := cfg.ValidateBot(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, cleanup, err := bootstrap.InitWorkerApp(ctx, log, cfg, bootstrap.ModeBot)
	if err != nil {
		log.Fatal("init bot", zap.Error(err))
	}
	defer cleanup()

	log.Info("bot started", zap.String("symbol", cfg.Symbol), zap.String("storage", cfg.Storage))
	if err := run(ctx); err != nil {
		log.Error("bot exited", zap.Error(err))
	}
	log.Info("bot stopped")
}
