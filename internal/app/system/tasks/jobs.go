// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WorkbenchSweeper drops idle workbenches.
type WorkbenchSweeper interface {
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// Pruner deletes records older than a cutoff.
type Pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// WorkbenchSweepJob creates a job that removes workbenches idle for longer
// than ttl. It runs every ttl/4, but at least once a minute.
func WorkbenchSweepJob(store WorkbenchSweeper, ttl time.Duration, logger *zap.Logger) Job {
	interval := ttl / 4
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	return Job{
		Name:     "workbench-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := store.Sweep(ctx, time.Now().Add(-ttl))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("swept idle workbenches",
					zap.Int("removed", n),
					zap.Duration("ttl", ttl))
			}
			return nil
		},
	}
}

// RunRetentionJob creates a job that deletes runs older than retention.
func RunRetentionJob(runs Pruner, retention time.Duration, logger *zap.Logger) Job {
	return retentionJob("run-retention", "simulation runs", runs, retention, logger)
}

// LedgerRetentionJob creates a job that deletes API ledger entries older
// than retention.
func LedgerRetentionJob(entries Pruner, retention time.Duration, logger *zap.Logger) Job {
	return retentionJob("ledger-retention", "api ledger entries", entries, retention, logger)
}

func retentionJob(name, what string, p Pruner, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     name,
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			n, err := p.DeleteOlderThan(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("deleted expired "+what,
					zap.Int64("deleted", n),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}
