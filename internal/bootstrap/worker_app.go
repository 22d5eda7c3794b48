package bootstrap

import (
	"context"
	"fmt"

	"marketmaker-bot/internal/config"
	"marketmaker-bot/internal/infrastructure/worker"

	"go.uber.org/zap"
)

// Mode selects which tasks a process supervises.
type Mode string

const (
	ModeRefresher Mode = "refresher"
	ModeIngest    Mode = "ingest"
	ModeBot       Mode = "bot"
)

type releaser interface {
	Release(ctx context.Context, owner string) error
}

type WorkerApp func(ctx context.Context) error

// InitWorkerApp wires the tasks for mode and returns the supervisor entrypoint.
// The returned cleanup releases storage and redis handles.
func InitWorkerApp(ctx context.Context, log *zap.Logger, cfg config.Config, mode Mode) (WorkerApp, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (WorkerApp, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	table, closeTable, err := ProvideQuoteTable(ctx, log, cfg)
	if err != nil {
		return fail(fmt.Errorf("init quote table: %w", err))
	}
	cleanups = append(cleanups, closeTable)

	var tasks []worker.Task
	if mode == ModeIngest || mode == ModeBot {
		in := ProvideIngestor(log, cfg, ProvideQuoteSource(cfg), table.Sink)
		tasks = append(tasks, worker.Task{Name: "ingest", Run: in.IngestOnce, Every: cfg.IngestEvery})
	}
	if mode == ModeRefresher || mode == ModeBot {
		lease, closeLease, err := ProvideLease(cfg)
		if err != nil {
			return fail(fmt.Errorf("init lease: %w", err))
		}
		cleanups = append(cleanups, closeLease)
		loop, err := ProvideRefreshLoop(log, cfg, table.Reader, ProvideTradingClient(log, cfg), lease)
		if err != nil {
			return fail(fmt.Errorf("init refresh loop: %w", err))
		}
		if r, ok := lease.(releaser); ok {
			cleanups = append(cleanups, func() { _ = r.Release(context.Background(), loop.Owner()) })
		}
		tasks = append(tasks, worker.Task{Name: "refresh", Run: loop.Run, Every: cfg.RefreshInterval})
	}
	if len(tasks) == 0 {
		return fail(fmt.Errorf("unsupported mode %q", mode))
	}

	sup := &worker.Supervisor{Tasks: tasks, Log: log}
	return sup.Run, cleanup, nil
}
