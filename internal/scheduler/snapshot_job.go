// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSnapshotInterval is used when no interval is configured.
const DefaultSnapshotInterval = 30 * time.Minute

// Reconciler establishes a snapshot baseline and logs changes against it.
type Reconciler interface {
	EnsureBaseline(ctx context.Context) (bool, error)
	LogIfChanged(ctx context.Context) (bool, error)
}

// SnapshotJob periodically logs the user history snapshot when it changed.
type SnapshotJob struct {
	reconciler Reconciler
	interval   time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewSnapshotJob creates a job ticking every interval.
func NewSnapshotJob(reconciler Reconciler, interval time.Duration) *SnapshotJob {
	if interval <= 0 {
		interval = DefaultSnapshotInterval
	}
	return &SnapshotJob{
		reconciler: reconciler,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start establishes the baseline, then checks for changes on every tick
// until Stop is called or ctx ends. Only a baseline failure is returned;
// tick failures are logged and the loop continues.
func (j *SnapshotJob) Start(ctx context.Context) error {
	created, err := j.reconciler.EnsureBaseline(ctx)
	if err != nil {
		return err
	}
	slog.Info("user history baseline ready", "created", created, "interval", j.interval)

	ticker := time.NewTicker(j.interval)
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.Run(ctx)
			case <-j.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Run performs one change check.
func (j *SnapshotJob) Run(ctx context.Context) {
	emitted, err := j.reconciler.LogIfChanged(ctx)
	if err != nil {
		slog.Error("user history snapshot failed", "emitted", emitted, "error", err)
		return
	}
	if emitted {
		slog.Info("logged user history snapshot")
	}
}

// Stop ends the loop and waits for a running check to finish.
func (j *SnapshotJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
	j.wg.Wait()
}
