package worker

import (
	"context"
	"fmt"
	"time"

	"marketmaker-bot/internal/application"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var _ application.Worker = (*Supervisor)(nil)

// Task is one supervised unit of work. Run is invoked again Every after it
// returns, whether it succeeded or failed.
type Task struct {
	Name  string
	Run   func(ctx context.Context) error
	Every time.Duration
}

// Supervisor runs each task in its own goroutine with its own error boundary.
type Supervisor struct {
	Tasks []Task
	Log   *zap.Logger
}

func (s *Supervisor) Start(ctx context.Context) {
	_ = s.Run(ctx)
}

// Run blocks until ctx is cancelled and every task goroutine has returned.
func (s *Supervisor) Run(ctx context.Context) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range s.Tasks {
		t := t
		g.Go(func() error {
			s.loop(gctx, log.With(zap.String("task", t.Name)), t)
			return nil
		})
	}
	log.Info("supervisor.started", zap.Int("tasks", len(s.Tasks)))
	err := g.Wait()
	log.Info("supervisor.stopped")
	return err
}

func (s *Supervisor) loop(ctx context.Context, log *zap.Logger, t Task) {
	for {
		err := runGuarded(ctx, t.Run)
		if ctx.Err() != nil {
			log.Info("supervisor.task_stopped")
			return
		}
		if err != nil {
			log.Error("supervisor.task_failed", zap.Error(err), zap.Duration("restart_in", t.Every))
		} else {
			log.Debug("supervisor.task_done", zap.Duration("next_in", t.Every))
		}

		timer := time.NewTimer(t.Every)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("supervisor.task_stopped")
			return
		case <-timer.C:
		}
	}
}

func runGuarded(ctx context.Context, run func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return run(ctx)
}
