package background

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"jobtracker/internal/observability/metrics"
	"jobtracker/internal/repositories"

	"github.com/benbjohnson/clock"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const (
	TaskCloseExpiredJobs   = "close-expired-jobs"
	TaskPurgeRefreshTokens = "purge-expired-refresh-tokens"
	DefaultCloseInterval   = 15 * time.Minute
	DefaultPurgeInterval   = time.Hour
	defaultTaskTimeout     = 2 * time.Minute
)

// UnscopedStore hands out a gateway that spans every tenant.
type UnscopedStore interface {
	Unscoped() *repositories.Gateway
}

type Config struct {
	CloseInterval time.Duration
	PurgeInterval time.Duration
	TaskTimeout   time.Duration
}

// JobScheduler runs the periodic maintenance tasks.
type JobScheduler struct {
	scheduler gocron.Scheduler
	store     UnscopedStore
	clock     clock.Clock
	logger    *zap.Logger
	timeout   time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a new job scheduler with every maintenance task registered.
func NewJobScheduler(store UnscopedStore, clk clock.Clock, logger *zap.Logger, cfg Config) (*JobScheduler, error) {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CloseInterval <= 0 {
		cfg.CloseInterval = DefaultCloseInterval
	}
	if cfg.PurgeInterval <= 0 {
		cfg.PurgeInterval = DefaultPurgeInterval
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = defaultTaskTimeout
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLogger(gocronLogger{logger.Sugar()}))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobScheduler{
		scheduler: scheduler,
		store:     store,
		clock:     clk,
		logger:    logger.Named("scheduler"),
		timeout:   cfg.TaskTimeout,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[string]gocron.Job),
	}

	if err := js.registerJobs(cfg); err != nil {
		cancel()
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler", zap.Strings("jobs", js.JobNames()))
	js.scheduler.Start()
}

// Stop cancels running tasks and waits for them to return.
func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

// JobNames lists the registered tasks in name order.
func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (js *JobScheduler) registerJobs(cfg Config) error {
	tasks := []struct {
		name     string
		interval time.Duration
		fn       func(context.Context) (int, error)
	}{
		{TaskCloseExpiredJobs, cfg.CloseInterval, js.CloseExpiredJobs},
		{TaskPurgeRefreshTokens, cfg.PurgeInterval, js.PurgeExpiredRefreshTokens},
	}

	js.mu.Lock()
	defer js.mu.Unlock()
	for _, t := range tasks {
		job, err := js.scheduler.NewJob(
			gocron.DurationJob(t.interval),
			gocron.NewTask(js.run, t.name, t.fn),
			gocron.WithName(t.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("register %s: %w", t.name, err)
		}
		js.jobs[t.name] = job
	}
	return nil
}

// run executes one task with a deadline and records its outcome.
func (js *JobScheduler) run(name string, fn func(context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(js.ctx, js.timeout)
	defer cancel()

	start := js.clock.Now()
	affected, err := fn(ctx)
	elapsed := js.clock.Since(start)

	if err != nil {
		metrics.ObserveMaintenance(name, "error", 0)
		js.logger.Error("maintenance task failed", zap.String("task", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return
	}
	metrics.ObserveMaintenance(name, "success", affected)
	js.logger.Info("maintenance task completed",
		zap.String("task", name),
		zap.Int("affected", affected),
		zap.Duration("elapsed", elapsed))
}

// CloseExpiredJobs deactivates every open posting whose closing date has passed.
func (js *JobScheduler) CloseExpiredJobs(ctx context.Context) (int, error) {
	g := js.store.Unscoped()
	expired, err := g.Jobs().OpenPastClosingDate(ctx, js.clock.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("find expired jobs: %w", err)
	}
	for _, j := range expired {
		j.IsActive = false
		g.Jobs().Update(j)
	}
	return g.Commit(ctx)
}

// PurgeExpiredRefreshTokens clears refresh tokens that can no longer be redeemed.
func (js *JobScheduler) PurgeExpiredRefreshTokens(ctx context.Context) (int, error) {
	g := js.store.Unscoped()
	users, err := g.Users().WithExpiredRefreshTokens(ctx, js.clock.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("find expired refresh tokens: %w", err)
	}
	for _, u := range users {
		u.RefreshToken = nil
		u.RefreshTokenExpiry = nil
		g.Users().Update(u)
	}
	return g.Commit(ctx)
}

// gocronLogger feeds scheduler diagnostics into zap.
type gocronLogger struct {
	l *zap.SugaredLogger
}

func (g gocronLogger) Debug(msg string, args ...any) { g.l.Debugw(msg, args...) }
func (g gocronLogger) Error(msg string, args ...any) { g.l.Errorw(msg, args...) }
func (g gocronLogger) Info(msg string, args ...any)  { g.l.Infow(msg, args...) }
func (g gocronLogger) Warn(msg string, args ...any)  { g.l.Warnw(msg, args...) }
