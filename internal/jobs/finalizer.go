package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper finalizes every due contest and reports how many it closed.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Locker guards a sweep so overlapping ticks, or several instances sharing
// a database, never finalize concurrently.
type Locker interface {
	TryAcquire(ctx context.Context, ttl time.Duration) (release func(), ok bool, err error)
}

// FinalizerConfig controls the sweep cadence.
type FinalizerConfig struct {
	Interval time.Duration
	LockTTL  time.Duration
}

// FinalizerJob runs the contest sweep on a cron schedule.
type FinalizerJob struct {
	sweeper Sweeper
	locker  Locker
	config  FinalizerConfig
	logger  *zap.Logger
	cron    *cron.Cron
}

func NewFinalizerJob(sweeper Sweeper, locker Locker, config FinalizerConfig, logger *zap.Logger) *FinalizerJob {
	if config.Interval <= 0 {
		config.Interval = 10 * time.Second
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 2 * config.Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinalizerJob{
		sweeper: sweeper,
		locker:  locker,
		config:  config,
		logger:  logger,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start schedules the sweep. It returns immediately.
func (j *FinalizerJob) Start() error {
	spec := fmt.Sprintf("@every %s", j.config.Interval)
	if _, err := j.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.config.LockTTL)
		defer cancel()
		if _, err := j.RunOnce(ctx); err != nil {
			j.logger.Error("finalization sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule finalizer: %w", err)
	}
	j.cron.Start()
	j.logger.Info("finalizer started", zap.Duration("interval", j.config.Interval))
	return nil
}

// Stop halts scheduling and waits for a running sweep to return.
func (j *FinalizerJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("finalizer stopped")
}

// Run starts the job and blocks until ctx is cancelled.
func (j *FinalizerJob) Run(ctx context.Context) error {
	if err := j.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	j.Stop()
	return nil
}

// RunOnce performs a single sweep. When another holder owns the lock the
// sweep is skipped and reports zero.
func (j *FinalizerJob) RunOnce(ctx context.Context) (int, error) {
	if j.locker != nil {
		release, ok, err := j.locker.TryAcquire(ctx, j.config.LockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			j.logger.Debug("sweep skipped, lock held elsewhere")
			return 0, nil
		}
		defer release()
	}

	n, err := j.sweeper.SweepExpired(ctx)
	if n > 0 {
		j.logger.Info("sweep finished", zap.Int("finalized", n))
	}
	return n, err
}
