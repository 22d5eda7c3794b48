package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSupervisor_FailingTaskDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var failing, healthy atomic.Int32
	s := &Supervisor{
		Log: zap.New(core),
		Tasks: []Task{
			{Name: "refresh", Every: 5 * time.Millisecond, Run: func(context.Context) error {
				failing.Add(1)
				return errors.New("boom")
			}},
			{Name: "ingest", Every: 5 * time.Millisecond, Run: func(context.Context) error {
				healthy.Add(1)
				return nil
			}},
		},
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return failing.Load() >= 3 && healthy.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}

	failed := logs.FilterMessage("supervisor.task_failed").All()
	require.NotEmpty(t, failed)
	require.Equal(t, "refresh", failed[0].ContextMap()["task"])
}

func TestSupervisor_RecoversPanics(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	s := &Supervisor{
		Log: zap.New(core),
		Tasks: []Task{{Name: "p", Every: time.Millisecond, Run: func(context.Context) error {
			if calls.Add(1) == 1 {
				panic("nil map")
			}
			return nil
		}}},
	}
	go s.Start(ctx)

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, time.Millisecond)
	cancel()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("supervisor.task_failed").Len() == 1
	}, time.Second, time.Millisecond)
	require.Contains(t, logs.FilterMessage("supervisor.task_failed").All()[0].ContextMap()["error"], "panic: nil map")
}

func TestSupervisor_WaitsEveryBetweenRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	s := &Supervisor{Tasks: []Task{{Name: "slow", Every: time.Hour, Run: func(context.Context) error {
		calls.Add(1)
		return nil
	}}}}
	go s.Start(ctx)

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}

func TestSupervisor_CancelledTaskIsNotReportedAsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	s := &Supervisor{Log: zap.New(core), Tasks: []Task{{Name: "refresh", Every: time.Second, Run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}}}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	<-started
	cancel()
	require.NoError(t, <-done)
	require.Zero(t, logs.FilterMessage("supervisor.task_failed").Len())
	require.Equal(t, 1, logs.FilterMessage("supervisor.task_stopped").Len())
}
