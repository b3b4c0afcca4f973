package tasks_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/stratasim/internal/app/system/tasks"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunner_StartAndStop(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	ran := make(chan struct{}, 1)
	runner.Register(tasks.Job{
		Name:     "test-job",
		Interval: 100 * time.Millisecond,
		Run: func(ctx context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
	})

	runner.Start()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := runner.Stop(ctx); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}
}

func TestRunner_StopWithTimeout(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	inJob := make(chan struct{})
	release := make(chan struct{})
	runner.Register(tasks.Job{
		Name:     "stubborn-job",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			close(inJob)
			<-release // ignores ctx
			return nil
		},
	})

	runner.Start()
	<-inJob

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := runner.Stop(ctx); err != context.DeadlineExceeded {
		t.Errorf("Stop() = %v, want DeadlineExceeded", err)
	}

	close(release)
	if err := runner.Stop(context.Background()); err != nil {
		t.Errorf("second Stop() = %v", err)
	}
}

func TestRunner_JobContextCancellation(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	started := make(chan struct{})
	runner.Register(tasks.Job{
		Name:     "context-aware-job",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	})

	runner.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := runner.Stop(ctx); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}
}

func TestRunner_JobTimeout(t *testing.T) {
	runner := tasks.New(zap.NewNop())
	runner.Register(tasks.Job{
		Name:     "bounded",
		Interval: time.Hour,
		Timeout:  20 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	err := runner.RunOnce(context.Background(), "bounded")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunOnce() = %v, want DeadlineExceeded", err)
	}
}

func TestRunner_RunOnce(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	var count atomic.Int32
	runner.Register(tasks.Job{
		Name:     "manual-job",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			count.Add(1)
			return nil
		},
	})

	if err := runner.RunOnce(context.Background(), "manual-job"); err != nil {
		t.Errorf("RunOnce() returned error: %v", err)
	}
	if count.Load() != 1 {
		t.Errorf("job ran %d times, want 1", count.Load())
	}

	if err := runner.RunOnce(context.Background(), "nonexistent"); !errors.Is(err, tasks.ErrUnknownJob) {
		t.Errorf("RunOnce(nonexistent) = %v, want ErrUnknownJob", err)
	}
}

type fakeSweeper struct {
	cutoff time.Time
	n      int
}

func (f *fakeSweeper) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	f.cutoff = cutoff
	return f.n, nil
}

type fakePruner struct {
	cutoff time.Time
	err    error
}

func (f *fakePruner) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestWorkbenchSweepJob(t *testing.T) {
	sw := &fakeSweeper{n: 2}
	job := tasks.WorkbenchSweepJob(sw, 2*time.Hour, zap.NewNop())

	if job.Interval != time.Minute {
		t.Errorf("Interval = %v, want 1m cap", job.Interval)
	}
	before := time.Now()
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if age := before.Sub(sw.cutoff); age < 2*time.Hour-time.Second || age > 2*time.Hour+time.Second {
		t.Errorf("cutoff age = %v, want ~2h", age)
	}

	short := tasks.WorkbenchSweepJob(sw, 40*time.Second, zap.NewNop())
	if short.Interval != 10*time.Second {
		t.Errorf("Interval = %v, want ttl/4", short.Interval)
	}
}

func TestRunRetentionJob(t *testing.T) {
	p := &fakePruner{}
	job := tasks.RunRetentionJob(p, 24*time.Hour, zap.NewNop())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if age := time.Since(p.cutoff); age < 24*time.Hour || age > 24*time.Hour+time.Minute {
		t.Errorf("cutoff age = %v, want ~24h", age)
	}

	p.err = errors.New("mongo down")
	if err := job.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want store error")
	}
}

func TestLedgerRetentionJob(t *testing.T) {
	p := &fakePruner{}
	job := tasks.LedgerRetentionJob(p, 7*24*time.Hour, zap.NewNop())

	if job.Name != "ledger-retention" {
		t.Errorf("Name = %q", job.Name)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if age := time.Since(p.cutoff); age < 7*24*time.Hour || age > 7*24*time.Hour+time.Minute {
		t.Errorf("cutoff age = %v, want ~7d", age)
	}
}
