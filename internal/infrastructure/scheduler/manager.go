// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"metergate/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// BatchJobFunc adapts a plain function to BatchJob.
type BatchJobFunc func(ctx context.Context) (int, error)

func (f BatchJobFunc) Execute(ctx context.Context) (int, error) { return f(ctx) }

// SchedulerManager manages all scheduled jobs using gocron v2.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance. Periods are
// calendar months in UTC, so the scheduler runs in UTC as well.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterRolloverJob registers the daily sweep that re-tags usage rows
// stuck on a lapsed month. Read repair already covers rows that get
// accessed; the sweep covers the rest.
func (m *SchedulerManager) RegisterRolloverJob(job BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.runBatchJob(ctx, "usage-rollover-sweep", job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("usage", "rollover"),
		gocron.WithName("usage-rollover-sweep"),
	)
	return err
}

// RegisterSamplePruneJob registers the hourly prune of aged usage samples.
func (m *SchedulerManager) RegisterSamplePruneJob(job BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			m.runBatchJob(ctx, "usage-sample-prune", job)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("alerting", "samples"),
		gocron.WithName("usage-sample-prune"),
	)
	return err
}

// RegisterPlanChangeJob registers the hourly apply of scheduled plan
// changes that have fallen due.
func (m *SchedulerManager) RegisterPlanChangeJob(job BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			m.runBatchJob(ctx, "plan-change-apply", job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("plans", "apply"),
		gocron.WithName("plan-change-apply"),
	)
	return err
}

// RegisterCachePurgeJob registers the periodic purge of expired decision
// cache entries.
func (m *SchedulerManager) RegisterCachePurgeJob(job BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			m.runBatchJob(ctx, "decision-cache-purge", job)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("cache", "purge"),
		gocron.WithName("decision-cache-purge"),
	)
	return err
}

func (m *SchedulerManager) runBatchJob(ctx context.Context, name string, job BatchJob) {
	start := time.Now()
	processed, err := job.Execute(ctx)
	if err != nil {
		m.logger.Errorw("scheduled job failed",
			"job", name, "error", err, "duration", time.Since(start))
		return
	}
	if processed > 0 {
		m.logger.Infow("scheduled job completed",
			"job", name, "processed", processed, "duration", time.Since(start))
	} else {
		m.logger.Debugw("scheduled job completed",
			"job", name, "processed", processed, "duration", time.Since(start))
	}
}

// Start begins executing registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started", "jobs", len(m.scheduler.Jobs()))
}

// Shutdown stops the scheduler and waits for running jobs.
func (m *SchedulerManager) Shutdown() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}
	m.started = false
	return m.scheduler.Shutdown()
}
